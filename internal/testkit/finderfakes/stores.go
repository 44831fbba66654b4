// Package finderfakes provides in-memory finder storage fakes for tests.
package finderfakes

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/teamfinder/mlbb-finder/internal/services/finder/storage"
)

// Store is an in-memory ProfileStore and InterestLedger. Profiles and likes
// keep insertion order. Setting an Err field makes the matching operation
// fail.
type Store struct {
	mu       sync.Mutex
	profiles map[string]storage.Profile
	order    []string
	likes    []storage.InterestEdge

	UpsertErr   error
	GetErr      error
	DeleteErr   error
	TouchErr    error
	ListErr     error
	LikeErr     error
	LikedMeErr  error
	ExistsErr   error
	InsertCalls int
}

var (
	_ storage.ProfileStore   = (*Store)(nil)
	_ storage.InterestLedger = (*Store)(nil)
)

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{profiles: map[string]storage.Profile{}}
}

// Put seeds a profile without going through error injection.
func (s *Store) Put(p storage.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(p)
}

func (s *Store) putLocked(p storage.Profile) {
	if _, ok := s.profiles[p.UserID]; !ok {
		s.order = append(s.order, p.UserID)
	}
	s.profiles[p.UserID] = p
}

// Profile returns a stored profile for assertions.
func (s *Store) Profile(userID string) (storage.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	return p, ok
}

// Likes returns a copy of every stored edge in insertion order.
func (s *Store) Likes() []storage.InterestEdge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.InterestEdge(nil), s.likes...)
}

// Remove deletes a profile without cascading, simulating a row that vanished
// after a candidate list was built.
func (s *Store) Remove(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(userID)
}

func (s *Store) removeLocked(userID string) {
	delete(s.profiles, userID)
	kept := s.order[:0]
	for _, id := range s.order {
		if id != userID {
			kept = append(kept, id)
		}
	}
	s.order = kept
}

func (s *Store) UpsertProfile(_ context.Context, p storage.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	s.putLocked(p)
	return nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (storage.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return storage.Profile{}, s.GetErr
	}
	p, ok := s.profiles[userID]
	if !ok {
		return storage.Profile{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *Store) ProfileExists(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return false, s.GetErr
	}
	_, ok := s.profiles[userID]
	return ok, nil
}

func (s *Store) DeleteProfile(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	s.removeLocked(userID)
	s.deleteLikesLocked(userID)
	return nil
}

func (s *Store) TouchProfile(_ context.Context, userID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.TouchErr != nil {
		return false, s.TouchErr
	}
	p, ok := s.profiles[userID]
	if !ok {
		return false, nil
	}
	p.LastActiveAt = at
	s.profiles[userID] = p
	return true, nil
}

func (s *Store) ListActiveSince(_ context.Context, threshold time.Time, excludeUserID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var ids []string
	for _, id := range s.order {
		p, ok := s.profiles[id]
		if !ok || id == excludeUserID || p.LastActiveAt.Before(threshold) {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) LikeExists(_ context.Context, likerID string, likedID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ExistsErr != nil {
		return false, s.ExistsErr
	}
	return s.hasLikeLocked(likerID, likedID), nil
}

func (s *Store) hasLikeLocked(likerID string, likedID string) bool {
	for _, edge := range s.likes {
		if edge.LikerID == likerID && edge.LikedID == likedID {
			return true
		}
	}
	return false
}

func (s *Store) InsertLike(_ context.Context, edge storage.InterestEdge) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InsertCalls++
	if s.LikeErr != nil {
		return false, s.LikeErr
	}
	if edge.LikerID == edge.LikedID {
		return false, errors.New("self like")
	}
	if _, ok := s.profiles[edge.LikerID]; !ok {
		return false, storage.ErrNotFound
	}
	if _, ok := s.profiles[edge.LikedID]; !ok {
		return false, storage.ErrNotFound
	}
	if s.hasLikeLocked(edge.LikerID, edge.LikedID) {
		return false, nil
	}
	s.likes = append(s.likes, edge)
	return true, nil
}

func (s *Store) ListLikedMeNotReciprocated(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LikedMeErr != nil {
		return nil, s.LikedMeErr
	}
	var ids []string
	for _, edge := range s.likes {
		if edge.LikedID == userID && !s.hasLikeLocked(userID, edge.LikerID) {
			ids = append(ids, edge.LikerID)
		}
	}
	return ids, nil
}

func (s *Store) DeleteLikesFor(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	s.deleteLikesLocked(userID)
	return nil
}

func (s *Store) deleteLikesLocked(userID string) {
	kept := s.likes[:0]
	for _, edge := range s.likes {
		if edge.LikerID != userID && edge.LikedID != userID {
			kept = append(kept, edge)
		}
	}
	s.likes = kept
}
