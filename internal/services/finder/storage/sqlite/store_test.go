package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir() + "/finder.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testProfile(userID string, nickname string, at time.Time) storage.Profile {
	return storage.Profile{
		UserID:       userID,
		Nickname:     nickname,
		WinRate:      50,
		Lane:         "Roam",
		Rank:         "Epic",
		Goal:         "Play for fun",
		LastActiveAt: at,
	}
}

func mustUpsert(t *testing.T, store *Store, profile storage.Profile) {
	t.Helper()
	if err := store.UpsertProfile(context.Background(), profile); err != nil {
		t.Fatalf("upsert %s: %v", profile.UserID, err)
	}
}

func TestProfileRoundTripAndOverwrite(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	want := storage.Profile{
		UserID:        "user-a",
		DisplayHandle: "shadow_main",
		Nickname:      "Shadow",
		WinRate:       58,
		Lane:          "Jungle",
		Rank:          "Mythic",
		MythicTier:    "Mythical Glory",
		Goal:          "Climb rank",
		LastActiveAt:  now,
	}
	mustUpsert(t, store, want)

	got, err := store.GetProfile(ctx, "user-a")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("profile mismatch (-want +got):\n%s", diff)
	}

	overwrite := storage.Profile{
		UserID:       "user-a",
		Nickname:     "Shade",
		WinRate:      61,
		Lane:         "Roam",
		Rank:         "Legend",
		Goal:         "Find a permanent team",
		Bio:          "Tank main",
		PhotoRef:     "photo-1",
		LastActiveAt: now.Add(time.Hour),
	}
	mustUpsert(t, store, overwrite)

	got, err = store.GetProfile(ctx, "user-a")
	if err != nil {
		t.Fatalf("get overwritten profile: %v", err)
	}
	if diff := cmp.Diff(overwrite, got); diff != "" {
		t.Fatalf("overwritten profile mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsertKeepsBioVerbatim(t *testing.T) {
	store := openTestStore(t)
	profile := testProfile("user-a", "Shadow", time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))
	profile.Bio = "  Tank main\n  ping me after 9pm  "
	mustUpsert(t, store, profile)

	got, err := store.GetProfile(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if got.Bio != profile.Bio {
		t.Fatalf("bio = %q, want %q", got.Bio, profile.Bio)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.GetProfile(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing err = %v, want %v", err, storage.ErrNotFound)
	}
	exists, err := store.ProfileExists(context.Background(), "missing")
	if err != nil {
		t.Fatalf("profile exists: %v", err)
	}
	if exists {
		t.Fatal("expected missing profile to not exist")
	}
}

func TestUpsertRejectsInvalidEnumCombinations(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*storage.Profile)
	}{
		{name: "free text lane", mutate: func(p *storage.Profile) { p.Lane = "Top" }},
		{name: "mythic without tier", mutate: func(p *storage.Profile) { p.Rank = "Mythic" }},
		{name: "tier without mythic", mutate: func(p *storage.Profile) { p.MythicTier = "Mythical Honor" }},
		{name: "win rate above range", mutate: func(p *storage.Profile) { p.WinRate = 101 }},
		{name: "blank nickname", mutate: func(p *storage.Profile) { p.Nickname = "  " }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			profile := testProfile("user-x", "X", now)
			tc.mutate(&profile)
			if err := store.UpsertProfile(context.Background(), profile); err == nil {
				t.Fatal("expected constraint error")
			}
		})
	}
}

func TestTouchProfile(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	mustUpsert(t, store, testProfile("user-a", "A", start))

	later := start.Add(30 * time.Minute)
	touched, err := store.TouchProfile(ctx, "user-a", later)
	if err != nil {
		t.Fatalf("touch profile: %v", err)
	}
	if !touched {
		t.Fatal("expected existing profile to be touched")
	}
	got, err := store.GetProfile(ctx, "user-a")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if !got.LastActiveAt.Equal(later) {
		t.Fatalf("last_active_at = %v, want %v", got.LastActiveAt, later)
	}

	touched, err = store.TouchProfile(ctx, "nobody", later)
	if err != nil {
		t.Fatalf("touch missing profile: %v", err)
	}
	if touched {
		t.Fatal("expected missing profile to report false")
	}
}

func TestListActiveSinceKeepsInsertionOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	mustUpsert(t, store, testProfile("user-c", "C", now))
	mustUpsert(t, store, testProfile("user-a", "A", now.Add(-time.Minute)))
	mustUpsert(t, store, testProfile("user-stale", "Old", now.Add(-time.Hour)))
	mustUpsert(t, store, testProfile("user-b", "B", now))
	mustUpsert(t, store, testProfile("me", "Me", now))
	// Overwriting must not move the row to the end.
	mustUpsert(t, store, testProfile("user-c", "C2", now))

	got, err := store.ListActiveSince(ctx, now.Add(-10*time.Minute), "me")
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if diff := cmp.Diff([]string{"user-c", "user-a", "user-b"}, got); diff != "" {
		t.Fatalf("active ids mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertLikeIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	mustUpsert(t, store, testProfile("a", "A", now))
	mustUpsert(t, store, testProfile("b", "B", now))

	edge := storage.InterestEdge{LikerID: "a", LikedID: "b", CreatedAt: now}
	inserted, err := store.InsertLike(ctx, edge)
	if err != nil || !inserted {
		t.Fatalf("first insert = (%v, %v), want (true, nil)", inserted, err)
	}
	inserted, err = store.InsertLike(ctx, edge)
	if err != nil || inserted {
		t.Fatalf("second insert = (%v, %v), want (false, nil)", inserted, err)
	}

	var count int
	if err := store.sqlDB.QueryRow(`SELECT COUNT(*) FROM likes WHERE liker_id = 'a' AND liked_id = 'b'`).Scan(&count); err != nil {
		t.Fatalf("count likes: %v", err)
	}
	if count != 1 {
		t.Fatalf("like rows = %d, want 1", count)
	}
	exists, err := store.LikeExists(ctx, "a", "b")
	if err != nil || !exists {
		t.Fatalf("like exists a->b = (%v, %v), want (true, nil)", exists, err)
	}
	exists, err = store.LikeExists(ctx, "b", "a")
	if err != nil || exists {
		t.Fatalf("like exists b->a = (%v, %v), want (false, nil)", exists, err)
	}
}

func TestInsertLikeForMissingProfileReturnsNotFound(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	mustUpsert(t, store, testProfile("a", "A", now))

	_, err := store.InsertLike(context.Background(), storage.InterestEdge{LikerID: "a", LikedID: "ghost", CreatedAt: now})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("insert like err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestInsertLikeValidatesInput(t *testing.T) {
	store := openTestStore(t)
	for _, edge := range []storage.InterestEdge{
		{LikerID: "", LikedID: "b"},
		{LikerID: "a", LikedID: " "},
		{LikerID: "a", LikedID: "a"},
	} {
		if _, err := store.InsertLike(context.Background(), edge); err == nil {
			t.Fatalf("expected error for %+v", edge)
		}
	}
}

func TestListLikedMeNotReciprocated(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"me", "a", "b", "c"} {
		mustUpsert(t, store, testProfile(id, id, now))
	}
	for _, edge := range [][2]string{{"c", "me"}, {"a", "me"}, {"b", "me"}, {"me", "a"}, {"me", "c"}, {"me", "b"}, {"b", "c"}} {
		if _, err := store.InsertLike(ctx, storage.InterestEdge{LikerID: edge[0], LikedID: edge[1], CreatedAt: now}); err != nil {
			t.Fatalf("insert like %v: %v", edge, err)
		}
	}
	// me -> b was recorded, so b is reciprocated. Reset to leave only b pending.
	if _, err := store.sqlDB.Exec(`DELETE FROM likes WHERE liker_id = 'me' AND liked_id = 'b'`); err != nil {
		t.Fatalf("remove like: %v", err)
	}

	got, err := store.ListLikedMeNotReciprocated(ctx, "me")
	if err != nil {
		t.Fatalf("list liked me: %v", err)
	}
	if diff := cmp.Diff([]string{"b"}, got); diff != "" {
		t.Fatalf("liked me mismatch (-want +got):\n%s", diff)
	}

	got, err = store.ListLikedMeNotReciprocated(ctx, "c")
	if err != nil {
		t.Fatalf("list liked c: %v", err)
	}
	if diff := cmp.Diff([]string{"me", "b"}, got); diff != "" {
		t.Fatalf("liked c mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteProfileCascadesLikes(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"x", "y", "z"} {
		mustUpsert(t, store, testProfile(id, id, now))
	}
	for _, edge := range [][2]string{{"x", "y"}, {"z", "x"}, {"y", "z"}} {
		if _, err := store.InsertLike(ctx, storage.InterestEdge{LikerID: edge[0], LikedID: edge[1], CreatedAt: now}); err != nil {
			t.Fatalf("insert like %v: %v", edge, err)
		}
	}

	if err := store.DeleteProfile(ctx, "x"); err != nil {
		t.Fatalf("delete profile: %v", err)
	}
	if _, err := store.GetProfile(ctx, "x"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get deleted err = %v, want %v", err, storage.ErrNotFound)
	}
	var count int
	if err := store.sqlDB.QueryRow(`SELECT COUNT(*) FROM likes WHERE liker_id = 'x' OR liked_id = 'x'`).Scan(&count); err != nil {
		t.Fatalf("count likes: %v", err)
	}
	if count != 0 {
		t.Fatalf("likes naming x = %d, want 0", count)
	}
	for _, id := range []string{"y", "z"} {
		got, err := store.ListLikedMeNotReciprocated(ctx, id)
		if err != nil {
			t.Fatalf("list liked %s: %v", id, err)
		}
		for _, liker := range got {
			if liker == "x" {
				t.Fatalf("deleted user returned for %s", id)
			}
		}
	}
	if exists, _ := store.LikeExists(ctx, "y", "z"); !exists {
		t.Fatal("unrelated like must survive")
	}
}

func TestDeleteLikesFor(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	mustUpsert(t, store, testProfile("a", "A", now))
	mustUpsert(t, store, testProfile("b", "B", now))
	if _, err := store.InsertLike(ctx, storage.InterestEdge{LikerID: "a", LikedID: "b", CreatedAt: now}); err != nil {
		t.Fatalf("insert like: %v", err)
	}
	if err := store.DeleteLikesFor(ctx, "b"); err != nil {
		t.Fatalf("delete likes: %v", err)
	}
	if exists, _ := store.LikeExists(ctx, "a", "b"); exists {
		t.Fatal("expected like to be removed")
	}
	if _, err := store.GetProfile(ctx, "b"); err != nil {
		t.Fatalf("profile must survive like cleanup: %v", err)
	}
}

// Each side inserts its like and then reads the reverse edge, as the
// matching coordinator does. The later committer must always see the match.
func TestConcurrentReciprocalLikesDetectMatch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	const pairs = 20
	for i := 0; i < pairs; i++ {
		mustUpsert(t, store, testProfile(fmt.Sprintf("l%d", i), "L", now))
		mustUpsert(t, store, testProfile(fmt.Sprintf("r%d", i), "R", now))
	}

	likeAndCheck := func(liker, liked string) (bool, error) {
		if _, err := store.InsertLike(ctx, storage.InterestEdge{LikerID: liker, LikedID: liked, CreatedAt: now}); err != nil {
			return false, err
		}
		return store.LikeExists(ctx, liked, liker)
	}

	for i := 0; i < pairs; i++ {
		left, right := fmt.Sprintf("l%d", i), fmt.Sprintf("r%d", i)
		var (
			wg      sync.WaitGroup
			matches [2]bool
			errs    [2]error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			matches[0], errs[0] = likeAndCheck(left, right)
		}()
		go func() {
			defer wg.Done()
			matches[1], errs[1] = likeAndCheck(right, left)
		}()
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				t.Fatalf("pair %d: %v", i, err)
			}
		}
		if !matches[0] && !matches[1] {
			t.Fatalf("pair %d: match detected by neither side", i)
		}
	}
}

func TestIsForeignKeyViolationFallsBackToMessage(t *testing.T) {
	if isForeignKeyViolation(nil) {
		t.Fatal("nil error must not match")
	}
	if !isForeignKeyViolation(errors.New("constraint failed: FOREIGN KEY constraint failed (787)")) {
		t.Fatal("expected message fallback match")
	}
	if isForeignKeyViolation(errors.New("UNIQUE constraint failed: likes.liker_id")) {
		t.Fatal("unique violation must not match")
	}
}
