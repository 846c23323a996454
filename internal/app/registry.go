package app

import (
	"net"
	"sync"

	"github.com/dkeye/Chat/internal/adapters/tcp"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
)

// MemberLister reads a room's current member names through the room's own lock.
type MemberLister interface {
	MemberNames() []string
}

type roomEntry struct {
	Room    *domain.Room
	Conns   chan net.Conn
	Members MemberLister
}

// Registry is the directory of live rooms. Capacity and name checks and the
// insert that follows them happen under one lock.
//
// A removed room keeps its capacity slot until Release is called for it, so
// rooms that are still winding down count against the limit.
type Registry struct {
	mu       sync.RWMutex
	capacity int
	held     int
	closed   bool
	rooms    map[domain.RoomID]*roomEntry
}

func NewRegistry(capacity int) *Registry {
	return &Registry{
		capacity: capacity,
		rooms:    make(map[domain.RoomID]*roomEntry),
	}
}

func (r *Registry) Capacity() int { return r.capacity }

// Register adds e, failing with ErrClosed, ErrTooManyRooms or ErrNameTaken.
func (r *Registry) Register(e *roomEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.held >= r.capacity {
		return domain.ErrTooManyRooms
	}
	for _, other := range r.rooms {
		if other.Room.SameName(e.Room.Name) {
			return domain.ErrNameTaken
		}
	}
	r.rooms[e.Room.ID] = e
	r.held++
	log.Info().Str("module", "app.registry").Str("room_id", string(e.Room.ID)).Str("room", string(e.Room.Name)).Msg("room registered")
	return nil
}

// Remove deletes the room with id if caller owns it and closes its inbound
// channel, which winds the room down. The slot stays held until Release.
func (r *Registry) Remove(id domain.RoomID, caller domain.OwnerID) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	if !e.Room.IsOwner(caller) {
		return nil, domain.ErrNotOwner
	}
	delete(r.rooms, id)
	close(e.Conns)
	log.Info().Str("module", "app.registry").Str("room_id", string(id)).Str("room", string(e.Room.Name)).Msg("room removed")
	return e.Room, nil
}

// NameAvailable is a case-insensitive negative lookup.
func (r *Registry) NameAvailable(name domain.RoomName) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.rooms {
		if e.Room.SameName(name) {
			return false
		}
	}
	return true
}

func (r *Registry) Names() []domain.RoomName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.RoomName, 0, len(r.rooms))
	for _, e := range r.rooms {
		out = append(out, e.Room.Name)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// snapshot copies the entries so callers can visit them without the lock.
func (r *Registry) snapshot() []*roomEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*roomEntry, 0, len(r.rooms))
	for _, e := range r.rooms {
		out = append(out, e)
	}
	return out
}

// Dispatch implements tcp.Directory. The name must match exactly, case
// included. The hand-off never blocks, and it happens under the read lock so
// Remove cannot close the channel underneath it.
func (r *Registry) Dispatch(name string, conn net.Conn) tcp.DispatchResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.rooms {
		if string(e.Room.Name) != name {
			continue
		}
		select {
		case e.Conns <- conn:
			return tcp.Dispatched
		default:
			return tcp.RoomBusy
		}
	}
	return tcp.NoSuchRoom
}

// Release frees the slot of a removed room once its engine has stopped.
func (r *Registry) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.held > 0 {
		r.held--
	}
}

// InUse counts registered rooms plus removed rooms not yet released.
func (r *Registry) InUse() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.held
}

// Clear removes every room, closing their inbound channels, and refuses any
// later Register.
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	n := len(r.rooms)
	for id, e := range r.rooms {
		delete(r.rooms, id)
		close(e.Conns)
	}
	if n > 0 {
		log.Info().Str("module", "app.registry").Int("rooms", n).Msg("registry cleared")
	}
	return n
}
