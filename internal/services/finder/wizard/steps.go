package wizard

import (
	"strings"

	apperrors "github.com/teamfinder/mlbb-finder/internal/platform/errors"
	"github.com/teamfinder/mlbb-finder/internal/platform/i18n/catalog"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/profile"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/reply"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/storage"
)

// handler validates one input for a step. It writes accepted values into
// draft and returns the next step. On error the caller discards draft.
type handler func(p catalog.Printer, draft *storage.Profile, in Input) (Step, error)

type stepSpec struct {
	menu   func(p catalog.Printer) *reply.Menu
	handle handler
}

var steps = map[Step]stepSpec{
	StepNickname: {
		menu: backOnly,
		handle: func(_ catalog.Printer, draft *storage.Profile, in Input) (Step, error) {
			if in.HasPhoto() {
				return StepNickname, rejected(StepNickname)
			}
			nickname, err := profile.ParseNickname(in.Text)
			if err != nil {
				return StepNickname, err
			}
			draft.Nickname = nickname
			return StepWinRate, nil
		},
	},
	StepWinRate: {
		menu: backOnly,
		handle: func(_ catalog.Printer, draft *storage.Profile, in Input) (Step, error) {
			if in.HasPhoto() {
				return StepWinRate, rejected(StepWinRate)
			}
			winRate, err := profile.ParseWinRate(in.Text)
			if err != nil {
				return StepWinRate, err
			}
			draft.WinRate = winRate
			return StepLane, nil
		},
	},
	StepLane: {
		menu: choiceMenu(profile.Lanes),
		handle: func(p catalog.Printer, draft *storage.Profile, in Input) (Step, error) {
			lane, ok := profile.ParseChoice(p, profile.Lanes, in.Text)
			if !ok || in.HasPhoto() {
				return StepLane, rejected(StepLane)
			}
			draft.Lane = lane
			return StepRank, nil
		},
	},
	StepRank: {
		menu: choiceMenu(profile.Ranks),
		handle: func(p catalog.Printer, draft *storage.Profile, in Input) (Step, error) {
			rank, ok := profile.ParseChoice(p, profile.Ranks, in.Text)
			if !ok || in.HasPhoto() {
				return StepRank, rejected(StepRank)
			}
			draft.Rank = rank
			if rank == profile.RankMythic {
				return StepMythicTier, nil
			}
			draft.MythicTier = ""
			return StepGoal, nil
		},
	},
	StepMythicTier: {
		menu: choiceMenu(profile.MythicTiers),
		handle: func(p catalog.Printer, draft *storage.Profile, in Input) (Step, error) {
			tier, ok := profile.ParseChoice(p, profile.MythicTiers, in.Text)
			if !ok || in.HasPhoto() {
				return StepMythicTier, rejected(StepMythicTier)
			}
			draft.MythicTier = tier
			return StepGoal, nil
		},
	},
	StepGoal: {
		menu: choiceMenu(profile.Goals),
		handle: func(p catalog.Printer, draft *storage.Profile, in Input) (Step, error) {
			goal, ok := profile.ParseChoice(p, profile.Goals, in.Text)
			if !ok || in.HasPhoto() {
				return StepGoal, rejected(StepGoal)
			}
			draft.Goal = goal
			return StepBio, nil
		},
	},
	StepBio: {
		menu: func(p catalog.Printer) *reply.Menu {
			return reply.Grid(1, p.Text("button.skip_bio"), p.Text("button.back"))
		},
		handle: func(p catalog.Printer, draft *storage.Profile, in Input) (Step, error) {
			if in.HasPhoto() || strings.TrimSpace(in.Text) == "" {
				return StepBio, rejected(StepBio)
			}
			if p.Matches("button.skip_bio", in.Text) {
				draft.Bio = ""
			} else {
				draft.Bio = in.Text
			}
			return StepPhotoChoice, nil
		},
	},
	StepPhotoChoice: {
		menu: func(p catalog.Printer) *reply.Menu {
			return reply.Grid(1, p.Text("button.add_photo"), p.Text("button.finish"), p.Text("button.back"))
		},
		handle: func(p catalog.Printer, draft *storage.Profile, in Input) (Step, error) {
			switch {
			case in.HasPhoto():
				return StepPhotoChoice, rejected(StepPhotoChoice)
			case p.Matches("button.add_photo", in.Text):
				return StepPhotoUpload, nil
			case p.Matches("button.finish", in.Text):
				draft.PhotoRef = ""
				return StepComplete, nil
			default:
				return StepPhotoChoice, rejected(StepPhotoChoice)
			}
		},
	},
	StepPhotoUpload: {
		menu: backOnly,
		handle: func(_ catalog.Printer, draft *storage.Profile, in Input) (Step, error) {
			ref, ok := largestPhoto(in.Photo)
			if !ok {
				return StepPhotoUpload, rejected(StepPhotoUpload)
			}
			draft.PhotoRef = ref
			return StepComplete, nil
		},
	},
}

func backOnly(p catalog.Printer) *reply.Menu {
	return reply.Grid(1, p.Text("button.back"))
}

func choiceMenu(choices []profile.Choice) func(p catalog.Printer) *reply.Menu {
	return func(p catalog.Printer) *reply.Menu {
		return reply.Grid(2, profile.Labels(p, choices)...).WithRow(p.Text("button.back"))
	}
}

func rejected(step Step) error {
	return apperrors.WithMetadata(apperrors.CodeValidation, "input rejected at "+step.String(), map[string]string{"Field": step.String()})
}

// largestPhoto picks the variant with the largest pixel area. Ties go to the
// later variant, which transports list in ascending size.
func largestPhoto(variants []PhotoVariant) (string, bool) {
	best := -1
	bestArea := -1
	for i, v := range variants {
		if strings.TrimSpace(v.FileID) == "" {
			continue
		}
		if area := v.Width * v.Height; area >= bestArea {
			best, bestArea = i, area
		}
	}
	if best < 0 {
		return "", false
	}
	return variants[best].FileID, true
}
