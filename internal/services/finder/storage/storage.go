// Package storage defines persistence contracts for finder profiles and likes.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested profile is missing.
var ErrNotFound = errors.New("record not found")

// Profile stores one player's gameplay profile. Optional fields are empty
// strings when absent.
type Profile struct {
	UserID        string
	DisplayHandle string
	Nickname      string
	WinRate       int
	Lane          string
	Rank          string
	MythicTier    string
	Goal          string
	Bio           string
	PhotoRef      string
	LastActiveAt  time.Time
}

// InterestEdge stores one directed like.
type InterestEdge struct {
	LikerID   string
	LikedID   string
	CreatedAt time.Time
}

// ProfileStore persists one profile per user.
type ProfileStore interface {
	// UpsertProfile inserts the profile or fully overwrites the existing row.
	UpsertProfile(ctx context.Context, profile Profile) error
	GetProfile(ctx context.Context, userID string) (Profile, error)
	ProfileExists(ctx context.Context, userID string) (bool, error)
	// DeleteProfile removes the profile and every like naming the user.
	DeleteProfile(ctx context.Context, userID string) error
	// TouchProfile refreshes LastActiveAt and reports whether a profile exists.
	TouchProfile(ctx context.Context, userID string, at time.Time) (bool, error)
	// ListActiveSince returns user ids active at or after threshold, in insertion order.
	ListActiveSince(ctx context.Context, threshold time.Time, excludeUserID string) ([]string, error)
}

// InterestLedger persists directed likes, unique per ordered pair.
type InterestLedger interface {
	LikeExists(ctx context.Context, likerID string, likedID string) (bool, error)
	// InsertLike adds the edge unless it exists and reports whether a row was added.
	InsertLike(ctx context.Context, edge InterestEdge) (bool, error)
	// ListLikedMeNotReciprocated returns likers of userID that userID has not liked back, in ledger order.
	ListLikedMeNotReciprocated(ctx context.Context, userID string) ([]string, error)
	DeleteLikesFor(ctx context.Context, userID string) error
}
