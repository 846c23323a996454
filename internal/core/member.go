package core

import (
	"errors"
	"sync"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrMemberGone   = errors.New("member gone")
)

// Member is a joined user: its display name and the outbound mailbox the room
// fans messages into.
type Member struct {
	Name string

	mu      sync.RWMutex
	mailbox chan Frame
	closed  bool

	goneOnce sync.Once
	gone     chan struct{}
}

func NewMember(name string, mailboxSize int) *Member {
	if mailboxSize < 1 {
		mailboxSize = 1
	}
	return &Member{
		Name:    name,
		mailbox: make(chan Frame, mailboxSize),
		gone:    make(chan struct{}),
	}
}

// TrySend enqueues f without blocking.
func (m *Member) TrySend(f Frame) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrMemberGone
	}
	select {
	case m.mailbox <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

// Mailbox is drained by the session's outbound pump.
func (m *Member) Mailbox() <-chan Frame { return m.mailbox }

// Close closes the mailbox; the outbound pump drains what is queued and stops.
func (m *Member) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.mailbox)
}

// Leave marks the member's session as finished.
func (m *Member) Leave() {
	m.goneOnce.Do(func() { close(m.gone) })
}

// Gone is closed once the session has ended in either direction.
func (m *Member) Gone() <-chan struct{} { return m.gone }

func (m *Member) Live() bool {
	select {
	case <-m.gone:
		return false
	default:
		return true
	}
}
