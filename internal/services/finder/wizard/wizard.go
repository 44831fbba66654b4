package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/teamfinder/mlbb-finder/internal/platform/errors"
	"github.com/teamfinder/mlbb-finder/internal/platform/i18n/catalog"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/profile"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/reply"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/session"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/storage"
)

// PhotoVariant is one resolution of an uploaded image.
type PhotoVariant struct {
	FileID string
	Width  int
	Height int
}

// Input is one inbound turn consumed by an open flow.
type Input struct {
	Text  string
	Photo []PhotoVariant
	// Back requests cancellation regardless of the text.
	Back bool
	// DisplayHandle is the transport handle stored on completion.
	DisplayHandle string
	Locale        string
}

// HasPhoto reports whether the input carries an image.
func (in Input) HasPhoto() bool {
	return len(in.Photo) > 0
}

// State is one user's open registration flow.
type State struct {
	Step  Step
	Draft storage.Profile
}

// Result describes the outcome of one step.
type Result struct {
	// Prompt is the next question, or the re-prompt after rejected input.
	// It is empty when the flow was cancelled or completed.
	Prompt reply.Reply
	// Rejected holds the validation error when input did not advance the step.
	Rejected error
	// Cancelled is set when the back signal discarded the flow.
	Cancelled bool
	// Completed is set when the profile was written.
	Completed bool
	Profile   storage.Profile
}

// Config wires a Wizard.
type Config struct {
	Profiles storage.ProfileStore
	Catalog  *catalog.Bundle
	// StateTTL bounds how long an abandoned flow is kept.
	StateTTL time.Duration
	Now      func() time.Time
}

// Wizard drives registration flows for all users.
type Wizard struct {
	profiles storage.ProfileStore
	catalog  *catalog.Bundle
	states   *session.Table[State]
	now      func() time.Time
}

// New builds a Wizard.
func New(cfg Config) (*Wizard, error) {
	if cfg.Profiles == nil {
		return nil, errors.New("profile store is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Wizard{
		profiles: cfg.Profiles,
		catalog:  cfg.Catalog,
		states:   session.NewTable[State](cfg.StateTTL, now),
		now:      now,
	}, nil
}

// Begin opens a flow at StepNickname, replacing any flow already open for
// userID, and returns the first prompt.
func (w *Wizard) Begin(userID string, locale string) reply.Reply {
	w.states.Put(userID, State{Step: StepNickname, Draft: storage.Profile{UserID: userID}})
	return w.prompt(userID, w.catalog.Printer(locale), StepNickname, false)
}

// Active reports whether userID has an open flow.
func (w *Wizard) Active(userID string) bool {
	_, ok := w.states.Get(userID)
	return ok
}

// Current returns the open flow for userID.
func (w *Wizard) Current(userID string) (State, bool) {
	return w.states.Get(userID)
}

// Cancel discards the flow for userID, if any.
func (w *Wizard) Cancel(userID string) {
	w.states.Delete(userID)
}

// OpenFlows returns the number of open flows.
func (w *Wizard) OpenFlows() int {
	return w.states.Len()
}

// Step feeds one input into the user's open flow.
//
// With no open flow it returns a SESSION_MISSING error. A store failure on
// completion returns a STORE_UNAVAILABLE error and leaves the flow at its
// last step so the same input can be retried.
func (w *Wizard) Step(ctx context.Context, userID string, in Input) (Result, error) {
	state, ok := w.states.Get(userID)
	if !ok {
		return Result{}, apperrors.New(apperrors.CodeMissingSession, "no registration flow for user")
	}
	printer := w.catalog.Printer(in.Locale)

	if in.Back || printer.Matches("button.back", in.Text) {
		w.states.Delete(userID)
		return Result{Cancelled: true}, nil
	}

	spec, ok := steps[state.Step]
	if !ok {
		w.states.Delete(userID)
		return Result{}, fmt.Errorf("registration step %d has no handler", state.Step)
	}

	draft := state.Draft
	next, err := spec.handle(printer, &draft, in)
	if err != nil {
		if !apperrors.IsCode(err, apperrors.CodeValidation) {
			return Result{}, err
		}
		return Result{
			Prompt:   w.prompt(userID, printer, state.Step, true),
			Rejected: err,
		}, nil
	}

	if next != StepComplete {
		w.states.Put(userID, State{Step: next, Draft: draft})
		return Result{Prompt: w.prompt(userID, printer, next, false)}, nil
	}

	saved, err := w.complete(ctx, userID, draft, in.DisplayHandle)
	if err != nil {
		return Result{}, err
	}
	w.states.Delete(userID)
	return Result{Completed: true, Profile: saved}, nil
}

func (w *Wizard) complete(ctx context.Context, userID string, draft storage.Profile, handle string) (storage.Profile, error) {
	draft.UserID = userID
	draft.DisplayHandle = strings.TrimSpace(handle)
	draft.LastActiveAt = w.now().UTC()
	if err := profile.Validate(draft); err != nil {
		return storage.Profile{}, err
	}
	if err := w.profiles.UpsertProfile(ctx, draft); err != nil {
		return storage.Profile{}, apperrors.Unavailable("upsert profile", err)
	}
	return draft, nil
}

func (w *Wizard) prompt(userID string, printer catalog.Printer, step Step, invalid bool) reply.Reply {
	key := "wizard." + step.String()
	if invalid {
		key += ".invalid"
	}
	var menu *reply.Menu
	if spec, ok := steps[step]; ok && spec.menu != nil {
		menu = spec.menu(printer)
	}
	return reply.Reply{Recipient: userID, Text: printer.Text(key), Menu: menu}
}
