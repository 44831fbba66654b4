package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apperrors "github.com/teamfinder/mlbb-finder/internal/platform/errors"
	"github.com/teamfinder/mlbb-finder/internal/platform/i18n/catalog"
	"github.com/teamfinder/mlbb-finder/internal/platform/logging"
	"github.com/teamfinder/mlbb-finder/internal/platform/requestctx"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/discovery"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/matching"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/metrics"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/reply"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/session"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/storage"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/wizard"
)

const startCommand = "/start"

// PhotoVariant is one resolution of an inbound image.
type PhotoVariant = wizard.PhotoVariant

// Turn is one inbound message from a transport.
type Turn struct {
	UserID        string
	DisplayHandle string
	// LanguageCode is the user's BCP 47 language preference, if known.
	LanguageCode string
	Text         string
	Photo        []PhotoVariant
}

// Config wires a Router.
type Config struct {
	Profiles  storage.ProfileStore
	Wizard    *wizard.Wizard
	Discovery *discovery.Manager
	Matching  *matching.Coordinator
	Catalog   *catalog.Bundle
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	// DefaultLocale is used when a turn carries no language code.
	DefaultLocale string
	// PendingTTL bounds how long an unanswered delete confirmation is kept.
	PendingTTL time.Duration
	Now        func() time.Time
}

// Router dispatches turns. It is safe for concurrent use across users; one
// user's turns must be handled in arrival order.
type Router struct {
	profiles      storage.ProfileStore
	wizard        *wizard.Wizard
	discovery     *discovery.Manager
	matching      *matching.Coordinator
	catalog       *catalog.Bundle
	metrics       *metrics.Metrics
	logger        *zap.Logger
	tracer        trace.Tracer
	defaultLocale string
	pendingDelete *session.Table[struct{}]
	now           func() time.Time
}

// New builds a Router.
func New(cfg Config) (*Router, error) {
	switch {
	case cfg.Profiles == nil:
		return nil, errors.New("profile store is required")
	case cfg.Wizard == nil:
		return nil, errors.New("wizard is required")
	case cfg.Discovery == nil:
		return nil, errors.New("discovery manager is required")
	case cfg.Matching == nil:
		return nil, errors.New("matching coordinator is required")
	case cfg.Catalog == nil:
		return nil, errors.New("catalog is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	locale := cfg.DefaultLocale
	if !cfg.Catalog.HasLocale(locale) {
		locale = catalog.BaseLocale
	}
	return &Router{
		profiles:      cfg.Profiles,
		wizard:        cfg.Wizard,
		discovery:     cfg.Discovery,
		matching:      cfg.Matching,
		catalog:       cfg.Catalog,
		metrics:       cfg.Metrics,
		logger:        logging.OrNop(cfg.Logger),
		tracer:        otel.Tracer("github.com/teamfinder/mlbb-finder/internal/services/finder/bot"),
		defaultLocale: locale,
		pendingDelete: session.NewTable[struct{}](cfg.PendingTTL, now),
		now:           now,
	}, nil
}

// turnScope is the per-turn view handed to route handlers.
type turnScope struct {
	turn    Turn
	userID  string
	locale  string
	printer catalog.Printer
}

func (s turnScope) text() string {
	return strings.TrimSpace(s.turn.Text)
}

func (s turnScope) say(key string, menu *reply.Menu) reply.Reply {
	return reply.Reply{Recipient: s.userID, Text: s.printer.Text(key), Menu: menu}
}

// Handle processes one turn and returns the replies to deliver. The only
// error it returns is TURN_INVALID for a turn without a user id.
func (r *Router) Handle(ctx context.Context, turn Turn) ([]reply.Reply, error) {
	userID := strings.TrimSpace(turn.UserID)
	if userID == "" {
		return nil, apperrors.New(apperrors.CodeInvalidTurn, "turn has no user id")
	}
	turnID := uuid.NewString()
	ctx = requestctx.WithTurn(ctx, requestctx.Turn{ID: turnID, UserID: userID})
	ctx, span := r.tracer.Start(ctx, "finder.HandleTurn", trace.WithAttributes(
		attribute.String("finder.turn_id", turnID),
		attribute.Bool("finder.has_photo", len(turn.Photo) > 0),
	))
	defer span.End()
	started := r.now()

	scope := turnScope{turn: turn, userID: userID, locale: r.resolveLocale(turn.LanguageCode)}
	scope.printer = r.catalog.Printer(scope.locale)

	route, replies, err := r.route(ctx, scope)
	span.SetAttributes(attribute.String("finder.route", route))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		replies = append(replies, r.failure(ctx, scope, route, err))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	r.metrics.ObserveTurn(route, r.now().Sub(started))
	logging.FromContext(ctx, r.logger).Debug("turn handled",
		zap.String("route", route),
		zap.Int("replies", len(replies)),
	)
	return replies, nil
}

func (r *Router) resolveLocale(languageCode string) string {
	if strings.TrimSpace(languageCode) == "" {
		return r.defaultLocale
	}
	return r.catalog.Match(languageCode)
}

func (r *Router) route(ctx context.Context, scope turnScope) (string, []reply.Reply, error) {
	if r.wizard.Active(scope.userID) {
		replies, err := r.handleWizard(ctx, scope)
		return "wizard", replies, err
	}
	if len(scope.turn.Photo) > 0 {
		if err := r.touch(ctx, scope.userID); err != nil {
			return "photo", nil, err
		}
		return "photo", []reply.Reply{scope.say("photo.no_wizard", nil)}, nil
	}
	return r.handleCommand(ctx, scope)
}

// failure turns a routing error into the reply shown to the user.
func (r *Router) failure(ctx context.Context, scope turnScope, route string, err error) reply.Reply {
	logger := logging.FromContext(ctx, r.logger).With(zap.String("route", route), zap.Error(err))
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) && domainErr.Code == apperrors.CodeStoreUnavailable {
		r.metrics.StoreError(domainErr.Metadata["Op"])
		logger.Warn("store unavailable")
		return scope.say("error.store_unavailable", nil)
	}
	logger.Error("turn failed", zap.String("code", string(apperrors.CodeOf(err))))
	return scope.say("error.turn_invalid", nil)
}

// touch refreshes activity for users with a profile.
func (r *Router) touch(ctx context.Context, userID string) error {
	if _, err := r.profiles.TouchProfile(ctx, userID, r.now().UTC()); err != nil {
		return apperrors.Unavailable("touch profile", err)
	}
	return nil
}

func (r *Router) handleWizard(ctx context.Context, scope turnScope) ([]reply.Reply, error) {
	state, _ := r.wizard.Current(scope.userID)
	result, err := r.wizard.Step(ctx, scope.userID, wizard.Input{
		Text:          scope.turn.Text,
		Photo:         scope.turn.Photo,
		Back:          scope.text() == startCommand,
		DisplayHandle: scope.turn.DisplayHandle,
		Locale:        scope.locale,
	})
	if err != nil {
		return nil, err
	}
	switch {
	case result.Cancelled:
		return r.welcome(ctx, scope)
	case result.Completed:
		r.metrics.RegistrationCompleted()
		logging.FromContext(ctx, r.logger).Info("profile saved", zap.Bool("mythic", result.Profile.MythicTier != ""))
		return []reply.Reply{scope.say("wizard.complete", mainMenu(scope.printer))}, nil
	case result.Rejected != nil:
		r.metrics.InputRejected(state.Step.String())
	}
	return []reply.Reply{result.Prompt}, nil
}

// welcome shows the main menu to users with a profile and the start menu to
// everyone else.
func (r *Router) welcome(ctx context.Context, scope turnScope) ([]reply.Reply, error) {
	touched, err := r.profiles.TouchProfile(ctx, scope.userID, r.now().UTC())
	if err != nil {
		return nil, apperrors.Unavailable("touch profile", err)
	}
	return r.start(ctx, commandScope{turnScope: scope, hasProfile: touched})
}

// OpenFlows returns the number of open registration flows.
func (r *Router) OpenFlows() int {
	return r.wizard.OpenFlows()
}

// OpenSessions returns the number of open discovery sessions.
func (r *Router) OpenSessions() int {
	return r.discovery.OpenSessions()
}
