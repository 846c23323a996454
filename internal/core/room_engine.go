package core

import (
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrMemberNameInvalid = errors.New("invalid member name")
	ErrMemberNameTaken   = errors.New("member name already in use")
)

type EngineOptions struct {
	MailboxSize      int
	InboxSize        int
	HandshakeTimeout time.Duration
	Policy           Policy
}

// Stats counts frames seen by a room's broadcast loop.
type Stats struct {
	Received  uint64 `json:"received"`
	Forwarded uint64 `json:"forwarded"`
	Ignored   uint64 `json:"ignored"`
	Dropped   uint64 `json:"dropped"`
}

// RoomEngine owns one room: its members, its history and the single loop that
// orders every message sent into it.
type RoomEngine struct {
	room     *domain.Room
	state    *RoomState
	upgrader Upgrader
	opts     EngineOptions

	inbox chan Frame
	done  chan struct{}

	logger zerolog.Logger

	received  atomic.Uint64
	forwarded atomic.Uint64
	ignored   atomic.Uint64
	dropped   atomic.Uint64
}

func NewRoomEngine(room *domain.Room, up Upgrader, opts EngineOptions) *RoomEngine {
	if opts.Policy == nil {
		opts.Policy = KickPolicy{}
	}
	if opts.InboxSize < 1 {
		opts.InboxSize = 64
	}
	return &RoomEngine{
		room:     room,
		state:    NewRoomState(),
		upgrader: up,
		opts:     opts,
		inbox:    make(chan Frame, opts.InboxSize),
		done:     make(chan struct{}),
		logger: log.With().
			Str("module", "core.room").
			Str("room", string(room.Name)).
			Str("room_id", string(room.ID)).
			Logger(),
	}
}

// MemberNames is a snapshot taken under the room's own lock.
func (e *RoomEngine) MemberNames() []string { return e.state.MemberNames() }

func (e *RoomEngine) History() []Frame { return e.state.History() }

// Done is closed once the broadcast loop has delivered the close frame.
func (e *RoomEngine) Done() <-chan struct{} { return e.done }

func (e *RoomEngine) Stats() Stats {
	return Stats{
		Received:  e.received.Load(),
		Forwarded: e.forwarded.Load(),
		Ignored:   e.ignored.Load(),
		Dropped:   e.dropped.Load(),
	}
}

// Run starts the broadcast loop and then accepts connections from conns until
// the channel is closed, which shuts the room down.
func (e *RoomEngine) Run(conns <-chan net.Conn) {
	go e.broadcastLoop()
	e.logger.Info().Msg("room running")
	for conn := range conns {
		e.accept(conn)
	}
	e.logger.Info().Msg("inbound channel closed, shutting room down")
	e.inbox <- CloseFrame()
}

func (e *RoomEngine) accept(conn net.Conn) {
	logger := e.logger.With().Str("remote", conn.RemoteAddr().String()).Logger()
	deadline := time.Time{}
	if e.opts.HandshakeTimeout > 0 {
		deadline = time.Now().Add(e.opts.HandshakeTimeout)
	}
	_ = conn.SetDeadline(deadline)

	fc, err := e.upgrader.Upgrade(conn)
	if err != nil {
		logger.Debug().Err(err).Msg("upgrade failed, dropping connection")
		_ = conn.Close()
		return
	}
	// The upgrade clears socket deadlines; the join exchange shares the same bound.
	_ = conn.SetDeadline(deadline)

	name, err := e.handshake(fc)
	if err != nil {
		logger.Debug().Err(err).Msg("join handshake failed, dropping connection")
		_ = fc.Close()
		return
	}

	if prev, ok := e.state.Member(name); ok && prev.Live() {
		logger.Info().Str("member", name).Msg("join rejected, name in use")
		_ = fc.WriteFrame(AdminFrame(fmt.Sprintf("Name %s is already in use in this room.", name)))
		_ = fc.Close()
		return
	}
	_ = conn.SetDeadline(time.Time{})

	e.deliver(AdminFrame(fmt.Sprintf("New user, %s, joined the chat!", name)), "")

	member := NewMember(name, e.opts.MailboxSize)
	if prev := e.state.Put(member); prev != nil {
		prev.Close()
	}
	logger.Info().Str("member", name).Msg("member joined")

	pump := NewSessionPump(member, fc, e.inbox, e.done, e.logger)
	go func() {
		pump.Run()
		if e.state.Remove(member) {
			logger.Info().Str("member", name).Msg("member left")
		}
	}()
}

func (e *RoomEngine) handshake(fc FrameConn) (string, error) {
	if err := fc.WriteFrame(TextFrame(JoinPrompt)); err != nil {
		return "", fmt.Errorf("send prompt: %w", err)
	}
	f, err := fc.ReadFrame()
	if err != nil {
		return "", fmt.Errorf("read join request: %w", err)
	}
	req, err := DecodeJoinRequest(f)
	if err != nil {
		return "", err
	}
	if req.Name == "" || req.Name == AdminName || len(req.Name) > domain.MaxUsernameLen {
		return "", fmt.Errorf("%w: %q", ErrMemberNameInvalid, req.Name)
	}
	return req.Name, nil
}

func (e *RoomEngine) broadcastLoop() {
	defer close(e.done)
	for f := range e.inbox {
		e.received.Add(1)
		e.state.Append(f)

		switch f.Kind {
		case FrameText:
			msg, err := DecodeChatMessage(f)
			if err != nil {
				e.ignored.Add(1)
				e.logger.Debug().Err(err).Msg("undecodable text frame")
				continue
			}
			e.deliver(f, msg.From)
		case FrameClose:
			e.deliverClose(f)
			e.logger.Info().Msg("close frame sent to members, broadcast loop stopping")
			return
		default:
			e.ignored.Add(1)
			e.logger.Debug().Stringer("kind", f.Kind).Int("size", len(f.Data)).Msg("frame not forwarded")
		}
	}
}

// deliver fans f out to every member except the one named exclude.
func (e *RoomEngine) deliver(f Frame, exclude string) {
	for _, m := range e.state.Members() {
		if exclude != "" && m.Name == exclude {
			continue
		}
		err := m.TrySend(f)
		switch {
		case err == nil:
			e.forwarded.Add(1)
		case errors.Is(err, ErrBackpressure):
			e.dropped.Add(1)
			e.onBackpressure(m)
		}
	}
}

func (e *RoomEngine) deliverClose(f Frame) {
	for _, m := range e.state.Members() {
		if err := m.TrySend(f); err != nil {
			// The pump stops once it drains a closed mailbox.
			m.Close()
			continue
		}
		e.forwarded.Add(1)
	}
}

func (e *RoomEngine) onBackpressure(m *Member) {
	switch e.opts.Policy.OnBackPressure(string(e.room.Name), m) {
	case KickMember:
		e.state.Remove(m)
		m.Close()
		e.logger.Warn().Str("member", m.Name).Msg("mailbox full, member kicked")
	case DropFrame, NoAction:
		e.logger.Debug().Str("member", m.Name).Msg("mailbox full, frame dropped")
	}
}
