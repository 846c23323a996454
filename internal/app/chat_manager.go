package app

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkeye/Chat/internal/adapters/tcp"
	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

const DefaultCapacity = 10

var ErrClosed = errors.New("chat manager closed")

type Options struct {
	Capacity      int
	AcceptBacklog int
	RouteTimeout  time.Duration
	Engine        core.EngineOptions
}

type RoomSummary struct {
	Name domain.RoomName `json:"name"`
	ID   domain.RoomID   `json:"id"`
}

// RoomVisitor receives, for every room, its name and then its member names.
type RoomVisitor interface {
	VisitRoom(name domain.RoomName)
	VisitMembers(names []string)
}

// ChatManager owns the room registry, the worker pool that runs the router
// and the rooms, and the operations the management API calls.
type ChatManager struct {
	registry *Registry
	upgrader core.Upgrader
	opts     Options
	workers  *pool.Pool

	started atomic.Bool

	// mu orders room and router starts against Close: nothing is submitted
	// to the pool once Close has begun waiting on it.
	mu     sync.RWMutex
	closed bool
	router *tcp.Router
}

func NewChatManager(up core.Upgrader, opts Options) *ChatManager {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.AcceptBacklog <= 0 {
		opts.AcceptBacklog = 16
	}
	return &ChatManager{
		registry: NewRegistry(opts.Capacity),
		upgrader: up,
		opts:     opts,
		// One slot for the router, one per held room slot.
		workers: pool.New().WithMaxGoroutines(opts.Capacity + 1),
	}
}

// CreateRoom registers a new room owned by owner and starts its engine.
func (m *ChatManager) CreateRoom(name string, owner string) (RoomSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return RoomSummary{}, ErrClosed
	}
	room, err := domain.NewRoom(name, owner)
	if err != nil {
		return RoomSummary{}, err
	}
	engine := core.NewRoomEngine(room, m.upgrader, m.opts.Engine)
	conns := make(chan net.Conn, m.opts.AcceptBacklog)
	if err := m.registry.Register(&roomEntry{Room: room, Conns: conns, Members: engine}); err != nil {
		log.Info().Str("module", "app.manager").Str("room", name).Err(err).Msg("create room rejected")
		return RoomSummary{}, err
	}

	m.workers.Go(func() {
		defer m.registry.Release()
		engine.Run(conns)
		<-engine.Done()
		st := engine.Stats()
		log.Info().
			Str("module", "app.manager").
			Str("room", string(room.Name)).
			Str("room_id", string(room.ID)).
			Uint64("received", st.Received).
			Uint64("forwarded", st.Forwarded).
			Uint64("ignored", st.Ignored).
			Uint64("dropped", st.Dropped).
			Msg("room stopped")
	})
	return RoomSummary{Name: room.Name, ID: room.ID}, nil
}

// DeleteRoom removes the room with id when caller is its owner.
func (m *ChatManager) DeleteRoom(id string, caller string) error {
	_, err := m.registry.Remove(domain.RoomID(id), domain.OwnerID(caller))
	return err
}

func (m *ChatManager) NameIsAvailable(name string) bool {
	return m.registry.NameAvailable(domain.RoomName(name))
}

// ListRoomNames has no ordering guarantee.
func (m *ChatManager) ListRoomNames() []domain.RoomName {
	return m.registry.Names()
}

func (m *ChatManager) ExtractRoomData(v RoomVisitor) {
	for _, e := range m.registry.snapshot() {
		v.VisitRoom(e.Room.Name)
		v.VisitMembers(e.Members.MemberNames())
	}
}

// StartRouter binds addr and starts routing connections to rooms. It may be
// called once per manager; a second call panics.
func (m *ChatManager) StartRouter(addr string) (net.Addr, error) {
	if !m.started.CompareAndSwap(false, true) {
		panic("chat: router already started on this manager")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	r, err := tcp.Listen(addr, m.registry, tcp.Options{RouteTimeout: m.opts.RouteTimeout})
	if err != nil {
		return nil, err
	}
	m.router = r
	m.workers.Go(func() {
		if err := r.Serve(); err != nil {
			log.Error().Err(err).Str("module", "app.manager").Msg("router stopped")
		}
	})
	return r.Addr(), nil
}

// Close stops the router, winds every room down and waits for the workers.
func (m *ChatManager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if m.router != nil {
		_ = m.router.Close()
	}
	m.registry.Clear()
	m.mu.Unlock()

	m.workers.Wait()
	log.Info().Str("module", "app.manager").Msg("chat manager closed")
}
