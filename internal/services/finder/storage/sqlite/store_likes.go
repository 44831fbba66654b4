package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/teamfinder/mlbb-finder/internal/services/finder/storage"
)

// LikeExists reports whether the directed like liker -> liked exists.
func (s *Store) LikeExists(ctx context.Context, likerID string, likedID string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	var found int
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT 1 FROM likes WHERE liker_id = ? AND liked_id = ?`,
		strings.TrimSpace(likerID),
		strings.TrimSpace(likedID),
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("like exists: %w", err)
	}
	return true, nil
}

// InsertLike adds the directed like unless it already exists. It returns
// storage.ErrNotFound when either profile is gone.
func (s *Store) InsertLike(ctx context.Context, edge storage.InterestEdge) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	likerID := strings.TrimSpace(edge.LikerID)
	likedID := strings.TrimSpace(edge.LikedID)
	if likerID == "" {
		return false, fmt.Errorf("liker id is required")
	}
	if likedID == "" {
		return false, fmt.Errorf("liked id is required")
	}
	if likerID == likedID {
		return false, fmt.Errorf("liked id must differ from liker id")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO likes (liker_id, liked_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(liker_id, liked_id) DO NOTHING`,
		likerID,
		likedID,
		toMillis(edge.CreatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, storage.ErrNotFound
		}
		return false, fmt.Errorf("insert like: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}
	return affected > 0, nil
}

// ListLikedMeNotReciprocated returns users who liked userID and whom userID
// has not liked back, in the order the likes were recorded.
func (s *Store) ListLikedMeNotReciprocated(ctx context.Context, userID string) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT l1.liker_id
		 FROM likes l1
		 WHERE l1.liked_id = ?
		   AND NOT EXISTS (
		     SELECT 1 FROM likes l2 WHERE l2.liker_id = ? AND l2.liked_id = l1.liker_id
		   )
		 ORDER BY l1.id ASC`,
		userID,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list liked me: %w", err)
	}
	return scanUserIDs(rows, "list liked me")
}

// DeleteLikesFor removes every like where userID is either party.
func (s *Store) DeleteLikesFor(ctx context.Context, userID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM likes WHERE liker_id = ? OR liked_id = ?`,
		strings.TrimSpace(userID),
		strings.TrimSpace(userID),
	); err != nil {
		return fmt.Errorf("delete likes: %w", err)
	}
	return nil
}
