package core

import (
	"github.com/rs/zerolog"
)

// SessionPump bridges one member's socket to its room.
type SessionPump struct {
	member   *Member
	conn     FrameConn
	room     chan<- Frame
	roomDone <-chan struct{}
	logger   zerolog.Logger
}

func NewSessionPump(member *Member, conn FrameConn, room chan<- Frame, roomDone <-chan struct{}, logger zerolog.Logger) *SessionPump {
	return &SessionPump{
		member:   member,
		conn:     conn,
		room:     room,
		roomDone: roomDone,
		logger:   logger.With().Str("member", member.Name).Logger(),
	}
}

// Run starts the outbound pump in its own goroutine and runs the inbound pump
// on the caller's goroutine. It returns once the inbound direction stops.
func (p *SessionPump) Run() {
	go p.writePump()
	p.readPump()
}

func (p *SessionPump) writePump() {
	defer p.stop()
	for {
		select {
		case <-p.member.Gone():
			return
		case f, ok := <-p.member.Mailbox():
			if !ok {
				p.logger.Debug().Msg("writePump mailbox closed")
				return
			}
			if err := p.conn.WriteFrame(f); err != nil {
				p.logger.Debug().Err(err).Msg("writePump write error")
				return
			}
			if f.Kind == FrameClose {
				p.logger.Debug().Msg("writePump close sent")
				return
			}
		}
	}
}

func (p *SessionPump) readPump() {
	defer p.stop()
	for {
		f, err := p.conn.ReadFrame()
		if err != nil {
			p.logger.Debug().Err(err).Msg("readPump read error")
			return
		}
		select {
		case p.room <- f:
		case <-p.roomDone:
			p.logger.Debug().Msg("readPump room closed")
			return
		}
	}
}

func (p *SessionPump) stop() {
	p.member.Leave()
	_ = p.conn.Close()
}
