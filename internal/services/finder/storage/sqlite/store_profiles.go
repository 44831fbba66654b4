package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teamfinder/mlbb-finder/internal/services/finder/storage"
)

// UpsertProfile inserts the profile or overwrites every column of the
// existing row. The row keeps its rowid, so discovery order is stable.
func (s *Store) UpsertProfile(ctx context.Context, profile storage.Profile) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	userID := strings.TrimSpace(profile.UserID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO profiles (user_id, display_handle, nickname, win_rate, lane, rank, mythic_tier, goal, bio, photo_ref, last_active_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   display_handle = excluded.display_handle,
		   nickname = excluded.nickname,
		   win_rate = excluded.win_rate,
		   lane = excluded.lane,
		   rank = excluded.rank,
		   mythic_tier = excluded.mythic_tier,
		   goal = excluded.goal,
		   bio = excluded.bio,
		   photo_ref = excluded.photo_ref,
		   last_active_at = excluded.last_active_at`,
		userID,
		nullString(profile.DisplayHandle),
		profile.Nickname,
		profile.WinRate,
		profile.Lane,
		profile.Rank,
		nullString(profile.MythicTier),
		profile.Goal,
		verbatimString(profile.Bio),
		nullString(profile.PhotoRef),
		toMillis(profile.LastActiveAt),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// GetProfile returns one profile by user id.
func (s *Store) GetProfile(ctx context.Context, userID string) (storage.Profile, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Profile{}, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.Profile{}, fmt.Errorf("user id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT user_id, display_handle, nickname, win_rate, lane, rank, mythic_tier, goal, bio, photo_ref, last_active_at
		 FROM profiles
		 WHERE user_id = ?`,
		userID,
	)
	var (
		profile                                  storage.Profile
		displayHandle, mythicTier, bio, photoRef sql.NullString
		lastActiveAt                             int64
	)
	err := row.Scan(
		&profile.UserID,
		&displayHandle,
		&profile.Nickname,
		&profile.WinRate,
		&profile.Lane,
		&profile.Rank,
		&mythicTier,
		&profile.Goal,
		&bio,
		&photoRef,
		&lastActiveAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Profile{}, storage.ErrNotFound
		}
		return storage.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	profile.DisplayHandle = displayHandle.String
	profile.MythicTier = mythicTier.String
	profile.Bio = bio.String
	profile.PhotoRef = photoRef.String
	profile.LastActiveAt = fromMillis(lastActiveAt)
	return profile, nil
}

// ProfileExists reports whether a profile row exists for userID.
func (s *Store) ProfileExists(ctx context.Context, userID string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	var found int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM profiles WHERE user_id = ?`, strings.TrimSpace(userID)).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("profile exists: %w", err)
	}
	return true, nil
}

// DeleteProfile removes the profile and every like where the user is
// either party, in one transaction.
func (s *Store) DeleteProfile(ctx context.Context, userID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete profile: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE liker_id = ? OR liked_id = ?`, userID, userID); err != nil {
		return fmt.Errorf("delete profile likes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete profile: commit: %w", err)
	}
	return nil
}

// TouchProfile refreshes last activity for an existing profile.
func (s *Store) TouchProfile(ctx context.Context, userID string, at time.Time) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE profiles SET last_active_at = ? WHERE user_id = ?`,
		toMillis(at),
		strings.TrimSpace(userID),
	)
	if err != nil {
		return false, fmt.Errorf("touch profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("touch profile: %w", err)
	}
	return affected > 0, nil
}

// ListActiveSince returns profiles active at or after threshold, excluding
// one user, in insertion order.
func (s *Store) ListActiveSince(ctx context.Context, threshold time.Time, excludeUserID string) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT user_id
		 FROM profiles
		 WHERE user_id <> ? AND last_active_at >= ?
		 ORDER BY rowid ASC`,
		strings.TrimSpace(excludeUserID),
		toMillis(threshold),
	)
	if err != nil {
		return nil, fmt.Errorf("list active profiles: %w", err)
	}
	return scanUserIDs(rows, "list active profiles")
}

func scanUserIDs(rows *sql.Rows, op string) ([]string, error) {
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}
