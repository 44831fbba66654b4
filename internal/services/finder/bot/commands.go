package bot

import (
	"context"
	"errors"

	apperrors "github.com/teamfinder/mlbb-finder/internal/platform/errors"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/discovery"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/metrics"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/profile"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/reply"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/storage"
)

// commandScope extends turnScope with facts gathered before dispatch.
type commandScope struct {
	turnScope
	hasProfile bool
}

type commandHandler func(r *Router, ctx context.Context, scope commandScope) ([]reply.Reply, error)

type command struct {
	name     string
	literals []string
	keys     []string
	handle   commandHandler
	// keepsPending leaves an outstanding delete confirmation in place.
	keepsPending bool
}

var commands = []command{
	{name: "start", literals: []string{startCommand}, keys: []string{"button.back"}, handle: (*Router).start},
	{name: "begin_profile", keys: []string{"button.start", "button.fill_profile"}, handle: (*Router).beginProfile},
	{name: "about", keys: []string{"button.about"}, handle: (*Router).about},
	{name: "my_profile", keys: []string{"button.my_profile"}, handle: (*Router).myProfile},
	{name: "edit_profile", keys: []string{"button.edit_profile"}, handle: (*Router).editProfile},
	{name: "delete_profile", keys: []string{"button.delete_profile"}, handle: (*Router).deleteProfile},
	{name: "confirm_delete", keys: []string{"button.confirm_delete"}, handle: (*Router).confirmDelete, keepsPending: true},
	{name: "cancel_delete", keys: []string{"button.cancel_delete"}, handle: (*Router).cancelDelete, keepsPending: true},
	{name: "quick_search", keys: []string{"button.quick_search"}, handle: (*Router).quickSearch},
	{name: "liked_me", keys: []string{"button.liked_me"}, handle: (*Router).likedMe},
	{name: "teammate_search", keys: []string{"button.teammate_search"}, handle: (*Router).teammateSearch},
	{name: "like", keys: []string{"button.like", "button.like_back"}, handle: (*Router).like},
	{name: "next", keys: []string{"button.next", "button.pass"}, handle: (*Router).next},
	{name: "stop_search", keys: []string{"button.stop_search", "button.back_to_menu", "button.to_menu"}, handle: (*Router).stopSearch},
}

func (c command) matches(scope turnScope) bool {
	text := scope.text()
	for _, literal := range c.literals {
		if text == literal {
			return true
		}
	}
	for _, key := range c.keys {
		if scope.printer.Matches(key, text) {
			return true
		}
	}
	return false
}

func (r *Router) handleCommand(ctx context.Context, scope turnScope) (string, []reply.Reply, error) {
	hasProfile, err := r.profiles.TouchProfile(ctx, scope.userID, r.now().UTC())
	if err != nil {
		return "command", nil, apperrors.Unavailable("touch profile", err)
	}
	cs := commandScope{turnScope: scope, hasProfile: hasProfile}

	for _, cmd := range commands {
		if !cmd.matches(scope) {
			continue
		}
		if !cmd.keepsPending {
			r.pendingDelete.Delete(scope.userID)
		}
		replies, err := cmd.handle(r, ctx, cs)
		return cmd.name, replies, err
	}
	r.pendingDelete.Delete(scope.userID)
	return "fallback", r.fallback(cs), nil
}

func (r *Router) fallback(scope commandScope) []reply.Reply {
	if scope.hasProfile {
		return []reply.Reply{scope.say("fallback.menu", mainMenu(scope.printer))}
	}
	return []reply.Reply{scope.say("welcome.new", startMenu(scope.printer))}
}

func (r *Router) missingProfile(scope commandScope) []reply.Reply {
	return []reply.Reply{scope.say("profile.missing", fillProfileMenu(scope.printer))}
}

func (r *Router) start(_ context.Context, scope commandScope) ([]reply.Reply, error) {
	if scope.hasProfile {
		return []reply.Reply{scope.say("welcome.back", mainMenu(scope.printer))}, nil
	}
	return []reply.Reply{scope.say("welcome.new", startMenu(scope.printer))}, nil
}

func (r *Router) beginProfile(_ context.Context, scope commandScope) ([]reply.Reply, error) {
	intro := scope.say("wizard.intro", nil)
	intro.RemoveMenu = true
	return []reply.Reply{intro, r.wizard.Begin(scope.userID, scope.locale)}, nil
}

func (r *Router) editProfile(_ context.Context, scope commandScope) ([]reply.Reply, error) {
	r.discovery.Stop(scope.userID)
	intro := scope.say("wizard.edit", nil)
	intro.RemoveMenu = true
	return []reply.Reply{intro, r.wizard.Begin(scope.userID, scope.locale)}, nil
}

func (r *Router) about(_ context.Context, scope commandScope) ([]reply.Reply, error) {
	return []reply.Reply{scope.say("about.text", fillProfileMenu(scope.printer))}, nil
}

func (r *Router) myProfile(ctx context.Context, scope commandScope) ([]reply.Reply, error) {
	p, err := r.profiles.GetProfile(ctx, scope.userID)
	if errors.Is(err, storage.ErrNotFound) {
		return r.missingProfile(scope), nil
	}
	if err != nil {
		return nil, apperrors.Unavailable("get profile", err)
	}
	return []reply.Reply{{
		Recipient: scope.userID,
		Text:      profile.Card(scope.printer, p),
		PhotoRef:  p.PhotoRef,
		Menu:      myProfileMenu(scope.printer),
	}}, nil
}

func (r *Router) deleteProfile(_ context.Context, scope commandScope) ([]reply.Reply, error) {
	if !scope.hasProfile {
		return r.missingProfile(scope), nil
	}
	r.pendingDelete.Put(scope.userID, struct{}{})
	return []reply.Reply{scope.say("delete.confirm", confirmDeleteMenu(scope.printer))}, nil
}

func (r *Router) confirmDelete(ctx context.Context, scope commandScope) ([]reply.Reply, error) {
	if _, pending := r.pendingDelete.Get(scope.userID); !pending {
		return r.fallback(scope), nil
	}
	if err := r.profiles.DeleteProfile(ctx, scope.userID); err != nil {
		return nil, apperrors.Unavailable("delete profile", err)
	}
	r.pendingDelete.Delete(scope.userID)
	r.discovery.Stop(scope.userID)
	r.wizard.Cancel(scope.userID)

	done := scope.say("delete.done", nil)
	done.RemoveMenu = true
	return []reply.Reply{done, scope.say("welcome.new", startMenu(scope.printer))}, nil
}

func (r *Router) cancelDelete(ctx context.Context, scope commandScope) ([]reply.Reply, error) {
	if _, pending := r.pendingDelete.Get(scope.userID); !pending {
		return r.fallback(scope), nil
	}
	r.pendingDelete.Delete(scope.userID)
	return r.myProfile(ctx, scope)
}

func (r *Router) quickSearch(ctx context.Context, scope commandScope) ([]reply.Reply, error) {
	if !scope.hasProfile {
		return r.missingProfile(scope), nil
	}
	render, err := r.discovery.Start(ctx, scope.userID, discovery.ModeDiscovery, scope.locale)
	if err != nil {
		return nil, err
	}
	r.metrics.SessionStarted(string(discovery.ModeDiscovery), render.Empty)
	if render.Empty {
		return []reply.Reply{scope.say("search.none_active", mainMenu(scope.printer))}, nil
	}
	return r.rendered(scope, render), nil
}

func (r *Router) likedMe(ctx context.Context, scope commandScope) ([]reply.Reply, error) {
	if !scope.hasProfile {
		return r.missingProfile(scope), nil
	}
	render, err := r.discovery.Start(ctx, scope.userID, discovery.ModeReciprocal, scope.locale)
	if err != nil {
		return nil, err
	}
	r.metrics.SessionStarted(string(discovery.ModeReciprocal), render.Empty)
	if render.Empty {
		return []reply.Reply{scope.say("liked.none", mainMenu(scope.printer))}, nil
	}
	replies := []reply.Reply{scope.say("liked.intro", nil)}
	return append(replies, r.rendered(scope, render)...), nil
}

func (r *Router) teammateSearch(_ context.Context, scope commandScope) ([]reply.Reply, error) {
	return []reply.Reply{scope.say("teammate_search.soon", mainMenu(scope.printer))}, nil
}

func (r *Router) like(ctx context.Context, scope commandScope) ([]reply.Reply, error) {
	outcome, err := r.matching.Like(ctx, scope.userID, scope.locale)
	replies := outcome.Replies()
	if err != nil {
		return replies, err
	}
	if outcome.NoSession {
		return nil, nil
	}
	switch {
	case outcome.Vanished:
		r.metrics.Like(metrics.LikeVanished)
	case outcome.Inserted:
		r.metrics.Like(metrics.LikeInserted)
	default:
		r.metrics.Like(metrics.LikeDuplicate)
	}
	if outcome.Matched {
		r.metrics.Match()
	}
	return append(replies, r.rendered(scope, outcome.Next)...), nil
}

func (r *Router) next(ctx context.Context, scope commandScope) ([]reply.Reply, error) {
	if _, ok := r.discovery.Current(scope.userID); !ok {
		return nil, nil
	}
	r.discovery.Advance(scope.userID)
	render, err := r.discovery.Render(ctx, scope.userID, scope.locale)
	if err != nil {
		return nil, err
	}
	return r.rendered(scope, render), nil
}

func (r *Router) stopSearch(_ context.Context, scope commandScope) ([]reply.Reply, error) {
	r.discovery.Stop(scope.userID)
	return []reply.Reply{scope.say("search.to_menu", mainMenu(scope.printer))}, nil
}

func (r *Router) rendered(scope commandScope, render discovery.Render) []reply.Reply {
	if render.Exhausted || render.Empty {
		return []reply.Reply{scope.say("search.finished", mainMenu(scope.printer))}
	}
	return []reply.Reply{render.Card}
}
