package core

import "sync"

// RoomState is the membership and history of one room. It is mutated only by
// the owning RoomEngine; other goroutines get copies.
type RoomState struct {
	mu      sync.RWMutex
	members map[string]*Member
	history []Frame
}

func NewRoomState() *RoomState {
	return &RoomState{members: make(map[string]*Member)}
}

// Member returns the member registered under name.
func (s *RoomState) Member(name string) (*Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[name]
	return m, ok
}

// Put registers m under its name, returning the member it replaced, if any.
func (s *RoomState) Put(m *Member) *Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.members[m.Name]
	s.members[m.Name] = m
	return prev
}

// Remove deletes name only if it still maps to m.
func (s *RoomState) Remove(m *Member) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.members[m.Name]; ok && cur == m {
		delete(s.members, m.Name)
		return true
	}
	return false
}

// Members is a snapshot of the current members.
func (s *RoomState) Members() []*Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m)
	}
	return out
}

func (s *RoomState) MemberNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.members))
	for name := range s.members {
		out = append(out, name)
	}
	return out
}

func (s *RoomState) Append(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, f)
}

// History returns a copy of the frame log in processing order.
func (s *RoomState) History() []Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Frame, len(s.history))
	copy(out, s.history)
	return out
}
