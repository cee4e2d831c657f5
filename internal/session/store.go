package session

import (
	"context"
	"sync"
	"time"
)

// Store maps user IDs to sessions. Access to one user's session is
// exclusive: a second turn for the same user waits until the first
// releases it. Different users never block each other.
type Store struct {
	mu      sync.Mutex
	entries map[int64]*entry
	now     func() time.Time
}

type entry struct {
	// lock is a one-slot semaphore so waiting can be cancelled.
	lock    chan struct{}
	session *Session
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[int64]*entry),
		now:     time.Now,
	}
}

func (s *Store) entry(userID int64) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		e = &entry{lock: make(chan struct{}, 1), session: newSession(userID)}
		e.session.UpdatedAt = s.now()
		s.entries[userID] = e
	}
	return e
}

// Acquire returns the user's session, creating it if absent, and holds it
// exclusively until release is called. It fails only if ctx ends while
// waiting for another turn of the same user.
func (s *Store) Acquire(ctx context.Context, userID int64) (*Session, func(), error) {
	for {
		e := s.entry(userID)

		select {
		case e.lock <- struct{}{}:
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}

		// The entry may have been expired while we waited.
		s.mu.Lock()
		current := s.entries[userID]
		s.mu.Unlock()
		if current != e {
			<-e.lock
			continue
		}

		var once sync.Once
		release := func() {
			once.Do(func() {
				e.session.UpdatedAt = s.now()
				<-e.lock
			})
		}
		return e.session, release, nil
	}
}

// GetOrCreate returns a snapshot of the user's session, creating it with
// no goal if absent.
func (s *Store) GetOrCreate(ctx context.Context, userID int64) (Session, error) {
	sess, release, err := s.Acquire(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	defer release()
	return sess.Clone(), nil
}

// Clear resets the user's session to goal selection.
func (s *Store) Clear(ctx context.Context, userID int64) error {
	sess, release, err := s.Acquire(ctx, userID)
	if err != nil {
		return err
	}
	defer release()
	sess.Reset()
	return nil
}

// SetGoal switches the user's goal, discarding progress on the previous one.
func (s *Store) SetGoal(ctx context.Context, userID int64, g Goal) error {
	sess, release, err := s.Acquire(ctx, userID)
	if err != nil {
		return err
	}
	defer release()
	sess.SetGoal(g)
	return nil
}

// Len returns the number of tracked sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// ExpireIdle drops sessions not used for maxIdle. Sessions in use are
// skipped. It returns the number of sessions dropped.
func (s *Store) ExpireIdle(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	dropped := 0
	for id, e := range s.entries {
		select {
		case e.lock <- struct{}{}:
		default:
			continue
		}
		if e.session.UpdatedAt.Before(cutoff) {
			delete(s.entries, id)
			dropped++
		}
		<-e.lock
	}
	return dropped
}

// RunExpiry calls ExpireIdle every interval until ctx ends.
func (s *Store) RunExpiry(ctx context.Context, maxIdle, interval time.Duration, onExpire func(n int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.ExpireIdle(maxIdle); n > 0 && onExpire != nil {
				onExpire(n)
			}
		}
	}
}
