package profile

import (
	"strconv"
	"strings"

	apperrors "github.com/teamfinder/mlbb-finder/internal/platform/errors"
	"github.com/teamfinder/mlbb-finder/internal/platform/i18n/catalog"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/storage"
)

const (
	// MinWinRate is the lowest accepted win rate.
	MinWinRate = 0
	// MaxWinRate is the highest accepted win rate.
	MaxWinRate = 100
)

func invalid(field string, message string) error {
	return apperrors.WithMetadata(apperrors.CodeValidation, message, map[string]string{"Field": field})
}

// ParseNickname trims text and rejects blank nicknames.
func ParseNickname(text string) (string, error) {
	nickname := strings.TrimSpace(text)
	if nickname == "" {
		return "", invalid("nickname", "nickname is required")
	}
	return nickname, nil
}

// ParseWinRate parses a whole-number percentage in [0, 100].
func ParseWinRate(text string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, invalid("win_rate", "win rate must be a whole number")
	}
	if value < MinWinRate || value > MaxWinRate {
		return 0, invalid("win_rate", "win rate must be between 0 and 100")
	}
	return value, nil
}

// Validate checks a complete profile before it is written.
func Validate(p storage.Profile) error {
	if strings.TrimSpace(p.UserID) == "" {
		return invalid("user_id", "user id is required")
	}
	if strings.TrimSpace(p.Nickname) == "" {
		return invalid("nickname", "nickname is required")
	}
	if p.WinRate < MinWinRate || p.WinRate > MaxWinRate {
		return invalid("win_rate", "win rate must be between 0 and 100")
	}
	if !isChoice(Lanes, p.Lane) {
		return invalid("lane", "lane is not an allowed value")
	}
	if !isChoice(Ranks, p.Rank) {
		return invalid("rank", "rank is not an allowed value")
	}
	if p.Rank == RankMythic {
		if !isChoice(MythicTiers, p.MythicTier) {
			return invalid("mythic_tier", "mythic tier is required for the Mythic rank")
		}
	} else if p.MythicTier != "" {
		return invalid("mythic_tier", "mythic tier is only allowed for the Mythic rank")
	}
	if !isChoice(Goals, p.Goal) {
		return invalid("goal", "goal is not an allowed value")
	}
	return nil
}

// Card renders the profile text shown to other players. The Mythic tier and
// bio lines appear only when set.
func Card(printer catalog.Printer, p storage.Profile) string {
	lines := []string{
		printer.Format("card.nickname", map[string]any{"Nickname": p.Nickname}),
		printer.Format("card.win_rate", map[string]any{"WinRate": p.WinRate}),
		printer.Format("card.lane", map[string]any{"Lane": Label(printer, Lanes, p.Lane)}),
		printer.Format("card.rank", map[string]any{"Rank": Label(printer, Ranks, p.Rank)}),
	}
	if p.MythicTier != "" {
		lines = append(lines, printer.Format("card.mythic_tier", map[string]any{"MythicTier": Label(printer, MythicTiers, p.MythicTier)}))
	}
	lines = append(lines, printer.Format("card.goal", map[string]any{"Goal": Label(printer, Goals, p.Goal)}))
	if strings.TrimSpace(p.Bio) != "" {
		lines = append(lines, printer.Format("card.bio", map[string]any{"Bio": p.Bio}))
	}
	return strings.Join(lines, "\n")
}
