// Package matching records likes and detects mutual interest.
//
// A like commits its edge before reading the reverse edge. The store
// serializes writers, so of two concurrent reciprocal likes the later
// committer always sees the earlier edge and reports the match.
package matching

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/teamfinder/mlbb-finder/internal/platform/errors"
	"github.com/teamfinder/mlbb-finder/internal/platform/i18n/catalog"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/discovery"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/reply"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/storage"
)

// Outcome describes one like action.
type Outcome struct {
	// NoSession is set when the liker had no candidate on screen. Nothing
	// else is populated.
	NoSession bool
	LikedID   string
	// Inserted reports whether a new edge was written.
	Inserted bool
	// Vanished is set when the candidate was deleted before the like landed.
	Vanished bool
	// Acknowledgment confirms the like to the liker.
	Acknowledgment *reply.Reply
	Matched        bool
	// Notifications announce the match to each side.
	Notifications []reply.Reply
	// Next is the candidate shown after the like.
	Next discovery.Render
}

// Replies returns every outbound turn in delivery order, excluding Next.
func (o Outcome) Replies() []reply.Reply {
	var out []reply.Reply
	if o.Acknowledgment != nil {
		out = append(out, *o.Acknowledgment)
	}
	return append(out, o.Notifications...)
}

// Config wires a Coordinator.
type Config struct {
	Profiles  storage.ProfileStore
	Likes     storage.InterestLedger
	Discovery *discovery.Manager
	Catalog   *catalog.Bundle
	// DefaultLocale renders notifications for the liked side, whose
	// language is not known during the liker's turn.
	DefaultLocale string
	Now           func() time.Time
}

// Coordinator turns likes into ledger edges and match notifications.
type Coordinator struct {
	profiles      storage.ProfileStore
	likes         storage.InterestLedger
	discovery     *discovery.Manager
	catalog       *catalog.Bundle
	defaultLocale string
	now           func() time.Time
}

// New builds a Coordinator.
func New(cfg Config) (*Coordinator, error) {
	switch {
	case cfg.Profiles == nil:
		return nil, errors.New("profile store is required")
	case cfg.Likes == nil:
		return nil, errors.New("interest ledger is required")
	case cfg.Discovery == nil:
		return nil, errors.New("discovery manager is required")
	case cfg.Catalog == nil:
		return nil, errors.New("catalog is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	locale := strings.TrimSpace(cfg.DefaultLocale)
	if locale == "" {
		locale = catalog.BaseLocale
	}
	return &Coordinator{
		profiles:      cfg.Profiles,
		likes:         cfg.Likes,
		discovery:     cfg.Discovery,
		catalog:       cfg.Catalog,
		defaultLocale: locale,
		now:           now,
	}, nil
}

// Like records a like from likerID for the candidate on screen, reports a
// match when the candidate already liked likerID, then advances the
// liker's session and renders the next candidate in the same mode.
//
// Without an open session it returns Outcome{NoSession: true}. When the
// candidate was deleted before the like landed, the Outcome has Vanished set
// and a nil Acknowledgment; the session still advances to the next candidate.
// If the edge cannot be written the session is left untouched. If only the
// final render fails, the returned Outcome still carries the acknowledgment
// and any notifications alongside the error.
func (c *Coordinator) Like(ctx context.Context, likerID string, locale string) (Outcome, error) {
	current, ok := c.discovery.Current(likerID)
	if !ok {
		return Outcome{NoSession: true}, nil
	}
	likedID, ok := current.CurrentID()
	if !ok {
		return Outcome{NoSession: true}, nil
	}
	outcome := Outcome{LikedID: likedID}

	inserted, err := c.likes.InsertLike(ctx, storage.InterestEdge{
		LikerID:   likerID,
		LikedID:   likedID,
		CreatedAt: c.now().UTC(),
	})
	switch {
	case errors.Is(err, storage.ErrNotFound):
		outcome.Vanished = true
		return c.advance(ctx, likerID, locale, outcome)
	case err != nil:
		return Outcome{}, apperrors.Unavailable("insert like", err)
	}
	outcome.Inserted = inserted

	printer := c.catalog.Printer(locale)
	outcome.Acknowledgment = &reply.Reply{Recipient: likerID, Text: printer.Text("like.sent")}

	reciprocal, err := c.likes.LikeExists(ctx, likedID, likerID)
	if err != nil {
		return outcome, apperrors.Unavailable("check reverse like", err)
	}
	if reciprocal {
		notifications, err := c.matchNotifications(ctx, likerID, likedID, locale)
		if err != nil {
			return outcome, err
		}
		outcome.Matched = true
		outcome.Notifications = notifications
	}
	return c.advance(ctx, likerID, locale, outcome)
}

func (c *Coordinator) advance(ctx context.Context, likerID string, locale string, outcome Outcome) (Outcome, error) {
	c.discovery.Advance(likerID)
	next, err := c.discovery.Render(ctx, likerID, locale)
	if err != nil {
		return outcome, err
	}
	outcome.Next = next
	return outcome, nil
}

// matchNotifications reads both profiles and tells each side who the other
// is. A side whose profile vanished gets nothing and is not announced.
func (c *Coordinator) matchNotifications(ctx context.Context, likerID string, likedID string, locale string) ([]reply.Reply, error) {
	liker, err := c.profiles.GetProfile(ctx, likerID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.Unavailable("get liker profile", err)
	}
	likerFound := err == nil
	liked, err := c.profiles.GetProfile(ctx, likedID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.Unavailable("get liked profile", err)
	}
	likedFound := err == nil
	if !likerFound || !likedFound {
		return nil, nil
	}
	return []reply.Reply{
		c.notice(likerID, liked, c.catalog.Printer(locale)),
		c.notice(likedID, liker, c.catalog.Printer(c.defaultLocale)),
	}, nil
}

func (c *Coordinator) notice(recipient string, partner storage.Profile, printer catalog.Printer) reply.Reply {
	contact := printer.Text("match.no_handle")
	if handle := strings.TrimPrefix(strings.TrimSpace(partner.DisplayHandle), "@"); handle != "" {
		contact = "@" + handle
	}
	return reply.Reply{
		Recipient: recipient,
		Text: printer.Format("match.notice", map[string]any{
			"Nickname": partner.Nickname,
			"Contact":  contact,
		}),
	}
}
