// Package discovery owns each user's traversal over candidate profiles.
//
// A session snapshots an ordered candidate list when it starts and then only
// moves its cursor. Candidates deleted after the snapshot are skipped when
// rendered; the session is discarded once the cursor runs off the end or the
// user stops.
package discovery

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/teamfinder/mlbb-finder/internal/platform/errors"
	"github.com/teamfinder/mlbb-finder/internal/platform/i18n/catalog"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/profile"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/reply"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/session"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/storage"
)

// DefaultActiveWindow is how recently a profile must have been active to be
// offered in discovery mode.
const DefaultActiveWindow = 10 * time.Minute

// Mode selects how a session's candidates were built and which actions the
// rendered card offers.
type Mode string

const (
	// ModeDiscovery scans recently active profiles.
	ModeDiscovery Mode = "discovery"
	// ModeReciprocal scans users who liked the requester and were not liked back.
	ModeReciprocal Mode = "reciprocal"
)

// Session is one user's traversal cursor.
type Session struct {
	Mode       Mode
	Candidates []string
	Cursor     int
}

// CurrentID returns the candidate at the cursor.
func (s Session) CurrentID() (string, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Candidates) {
		return "", false
	}
	return s.Candidates[s.Cursor], true
}

// Render is the result of showing the candidate at the cursor.
type Render struct {
	Mode Mode
	// Empty is set when Start found no candidates; no session was created.
	Empty bool
	// Exhausted is set when no live candidate remains; the session is gone.
	Exhausted bool
	Candidate storage.Profile
	// Card is the candidate card with the mode's action menu.
	Card reply.Reply
}

// Config wires a Manager.
type Config struct {
	Profiles     storage.ProfileStore
	Likes        storage.InterestLedger
	Catalog      *catalog.Bundle
	ActiveWindow time.Duration
	SessionTTL   time.Duration
	Now          func() time.Time
}

// Manager owns every user's discovery session.
type Manager struct {
	profiles storage.ProfileStore
	likes    storage.InterestLedger
	catalog  *catalog.Bundle
	sessions *session.Table[Session]
	window   time.Duration
	now      func() time.Time
}

// New builds a Manager.
func New(cfg Config) (*Manager, error) {
	if cfg.Profiles == nil {
		return nil, errors.New("profile store is required")
	}
	if cfg.Likes == nil {
		return nil, errors.New("interest ledger is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	window := cfg.ActiveWindow
	if window <= 0 {
		window = DefaultActiveWindow
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		profiles: cfg.Profiles,
		likes:    cfg.Likes,
		catalog:  cfg.Catalog,
		sessions: session.NewTable[Session](cfg.SessionTTL, now),
		window:   window,
		now:      now,
	}, nil
}

// Start builds a session for userID and renders its first candidate. Any
// session already open for userID is replaced.
func (m *Manager) Start(ctx context.Context, userID string, mode Mode, locale string) (Render, error) {
	candidates, err := m.candidates(ctx, userID, mode)
	if err != nil {
		return Render{}, err
	}
	if len(candidates) == 0 {
		m.sessions.Delete(userID)
		return Render{Mode: mode, Empty: true}, nil
	}
	m.sessions.Put(userID, Session{Mode: mode, Candidates: candidates})
	return m.Render(ctx, userID, locale)
}

func (m *Manager) candidates(ctx context.Context, userID string, mode Mode) ([]string, error) {
	switch mode {
	case ModeDiscovery:
		threshold := m.now().UTC().Add(-m.window)
		ids, err := m.profiles.ListActiveSince(ctx, threshold, userID)
		if err != nil {
			return nil, apperrors.Unavailable("list active profiles", err)
		}
		return ids, nil
	case ModeReciprocal:
		ids, err := m.likes.ListLikedMeNotReciprocated(ctx, userID)
		if err != nil {
			return nil, apperrors.Unavailable("list unreciprocated likes", err)
		}
		return ids, nil
	default:
		return nil, apperrors.WithMetadata(apperrors.CodeInvalidTurn, "unknown discovery mode", map[string]string{"Mode": string(mode)})
	}
}

// Advance moves the cursor of userID's session forward by one. It is a
// no-op without a session.
func (m *Manager) Advance(userID string) {
	s, ok := m.sessions.Get(userID)
	if !ok {
		return
	}
	s.Cursor++
	m.sessions.Put(userID, s)
}

// Render shows the live candidate at the cursor of userID's session.
// Candidates whose profile no longer exists are skipped. When the list runs
// out the session is discarded and Exhausted is set. On a store failure the
// session is left as it was.
func (m *Manager) Render(ctx context.Context, userID string, locale string) (Render, error) {
	s, ok := m.sessions.Get(userID)
	if !ok {
		return Render{Exhausted: true}, nil
	}
	for {
		candidateID, ok := s.CurrentID()
		if !ok {
			m.sessions.Delete(userID)
			return Render{Mode: s.Mode, Exhausted: true}, nil
		}
		candidate, err := m.profiles.GetProfile(ctx, candidateID)
		if errors.Is(err, storage.ErrNotFound) {
			s.Cursor++
			continue
		}
		if err != nil {
			return Render{}, apperrors.Unavailable("get candidate profile", err)
		}
		m.sessions.Put(userID, s)
		return Render{
			Mode:      s.Mode,
			Candidate: candidate,
			Card:      m.card(userID, s.Mode, candidate, locale),
		}, nil
	}
}

func (m *Manager) card(userID string, mode Mode, candidate storage.Profile, locale string) reply.Reply {
	printer := m.catalog.Printer(locale)
	return reply.Reply{
		Recipient: userID,
		Text:      profile.Card(printer, candidate),
		PhotoRef:  candidate.PhotoRef,
		Menu:      ActionMenu(printer, mode),
	}
}

// ActionMenu returns the buttons offered under a candidate card.
func ActionMenu(printer catalog.Printer, mode Mode) *reply.Menu {
	if mode == ModeReciprocal {
		return reply.Grid(2, printer.Text("button.like_back"), printer.Text("button.pass")).
			WithRow(printer.Text("button.back_to_menu"))
	}
	return reply.Grid(2, printer.Text("button.like"), printer.Text("button.next")).
		WithRow(printer.Text("button.stop_search"))
}

// Stop discards userID's session. It is a no-op without a session.
func (m *Manager) Stop(userID string) {
	m.sessions.Delete(userID)
}

// Current returns userID's open session.
func (m *Manager) Current(userID string) (Session, bool) {
	return m.sessions.Get(userID)
}

// OpenSessions returns the number of open sessions.
func (m *Manager) OpenSessions() int {
	return m.sessions.Len()
}
