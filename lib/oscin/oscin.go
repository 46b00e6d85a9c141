// Package oscin receives show control over OSC/UDP and feeds the event
// queue. It never touches render state; unknown or malformed traffic is
// counted and logged, never fatal.
package oscin

import (
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/hypebeast/go-osc/osc"

	"glyphwall/lib/engine"
)

// readDeadline paces the receive loop so shutdown is never blocked on a
// quiet socket.
const readDeadline = 200 * time.Millisecond

// addressKinds is the OSC address space of the controller. Each address
// maps 1:1 to an event kind.
var addressKinds = map[string]engine.EventKind{
	"/power/on":          engine.PowerOn,
	"/power/off":         engine.PowerOff,
	"/background/flash":  engine.BackgroundFlash,
	"/glyph/next":        engine.TransitionTrigger,
	"/transition/config": engine.ParamSet,
}

type Server struct {
	conn  *net.UDPConn
	queue *engine.Queue
	log   *slog.Logger

	received  atomic.Uint64
	unknown   atomic.Uint64
	malformed atomic.Uint64

	closed atomic.Bool
	done   chan struct{}
}

type Stats struct {
	Received  uint64
	Unknown   uint64
	Malformed uint64
}

// Listen binds the UDP socket and starts the receive loop. Port 0 picks a
// free port (tests).
func Listen(port int, queue *engine.Queue, log *slog.Logger) (*Server, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		return nil, fmt.Errorf("oscin: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		conn:  conn,
		queue: queue,
		log:   log.With("component", "oscin"),
		done:  make(chan struct{}),
	}
	go s.receiveLoop()
	s.log.Info("listening", "addr", conn.LocalAddr())
	return s, nil
}

func (s *Server) Port() int {
	return s.conn.LocalAddr().(*net.UDPAddr).Port
}

// Close stops the receive loop and releases the socket.
func (s *Server) Close() error {
	s.closed.Store(true)
	err := s.conn.Close()
	<-s.done
	return err
}

func (s *Server) Stats() Stats {
	return Stats{
		Received:  s.received.Load(),
		Unknown:   s.unknown.Load(),
		Malformed: s.malformed.Load(),
	}
}

func (s *Server) receiveLoop() {
	defer close(s.done)
	buf := make([]byte, 65536)
	for {
		s.conn.SetReadDeadline(time.Now().Add(readDeadline))
		n, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if s.closed.Load() {
				return
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			// Recoverable network error; keep receiving.
			s.log.Warn("receive error", "error", err)
			continue
		}
		pkt, err := osc.ParsePacket(string(buf[:n]))
		if err != nil {
			s.malformed.Add(1)
			s.log.Debug("malformed packet dropped", "error", err)
			continue
		}
		s.dispatch(pkt)
	}
}

func (s *Server) dispatch(pkt osc.Packet) {
	switch p := pkt.(type) {
	case *osc.Message:
		s.handleMessage(p)
	case *osc.Bundle:
		for _, m := range p.Messages {
			s.handleMessage(m)
		}
		for _, b := range p.Bundles {
			s.dispatch(b)
		}
	}
}

func (s *Server) handleMessage(m *osc.Message) {
	s.received.Add(1)
	kind, ok := addressKinds[m.Address]
	if !ok {
		s.unknown.Add(1)
		s.log.Warn("unknown address dropped", "address", m.Address)
		return
	}
	evicted := s.queue.Push(engine.Event{
		Kind:       kind,
		Address:    m.Address,
		Args:       m.Arguments,
		ReceivedAt: time.Now(),
	})
	if evicted {
		s.log.Debug("event queue full, evicted oldest", "address", m.Address)
	}
}
