package domain

import (
	"sync"
	"time"
)

// Session is the per-connection state owned by the hub client. Channel is a
// direct back-reference to the current room so leave and disconnect stay O(1)
// instead of scanning every channel.
type Session struct {
	ID           string
	Origin       string
	Channel      string
	CreatedAt    time.Time
	LastActiveAt time.Time
	mu           sync.RWMutex
}

func NewSession(id, origin string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Origin:       origin,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

func (s *Session) JoinChannel(channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Channel = channel
	s.LastActiveAt = time.Now()
}

func (s *Session) LeaveChannel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Channel = ""
	s.LastActiveAt = time.Now()
}

func (s *Session) CurrentChannel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Channel
}

func (s *Session) IsInChannel() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Channel != ""
}

func (s *Session) GetOrigin() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Origin
}

func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActiveAt = time.Now()
}
