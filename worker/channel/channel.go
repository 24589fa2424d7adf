// Package channel implements the worker's message channel: a TCP listener
// on the well-known worker port, delivering connect, disconnect and payload
// events per peer over one event stream, and accepting outbound payloads to
// a specific peer.
//
// Frames are an uint32 big-endian length prefix followed by the payload;
// what the payload means is the codec's business, not this package's.
package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"golang.org/x/exp/maps"
)

const (
	// DefaultPort is the well-known local port a worker advertises on.
	// Binding it twice on one host is the single-instance guard.
	DefaultPort = 41417

	// MaxPayloadSize caps a single frame; feature columns are the largest
	// payloads in practice.
	MaxPayloadSize = 1 << 24

	eventQueueDepth = 32
)

type PeerID uint64

type EventKind byte

const (
	Connected EventKind = iota
	Disconnected
	Payload
)

func (k EventKind) String() string {
	switch k {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case Payload:
		return "payload"
	default:
		return fmt.Sprintf("event(%d)", byte(k))
	}
}

// Event is one occurrence on the channel. Bytes is set only for Payload
// events.
type Event struct {
	Peer  PeerID
	Kind  EventKind
	Bytes []byte
}

// Channel owns the listener and all peer connections. Events from every
// peer funnel into one stream; the stream is closed when Run winds down,
// which readers of Events treat as a transport failure unless the context
// was cancelled.
type Channel struct {
	listener net.Listener
	events   chan Event

	mu     sync.RWMutex
	peers  map[PeerID]*peer
	nextID PeerID

	readers sync.WaitGroup
}

// Listen binds the channel's TCP address. A bind failure is returned as-is;
// on the well-known port it means another worker already runs on this host,
// and the caller is expected to exit over it.
func Listen(addr string) (*Channel, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("could not bind %s: %w", addr, err)
	}

	return &Channel{
		listener: ln,
		events:   make(chan Event, eventQueueDepth),
		peers:    make(map[PeerID]*peer),
	}, nil
}

func (c *Channel) L() *slog.Logger {
	return slog.With("channel", c.listener.Addr().String())
}

func (c *Channel) Addr() net.Addr {
	return c.listener.Addr()
}

// Events returns the channel's event stream.
func (c *Channel) Events() <-chan Event {
	return c.events
}

// Run accepts connections until the context is cancelled or the listener
// fails, then tears everything down and closes the event stream.
func (c *Channel) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		c.listener.Close()
	}()

	for {
		conn, err := c.listener.Accept()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				c.L().Error("accept failed", "err", err)
			}
			break
		}

		c.startPeer(ctx, conn)
	}

	c.closeAll()
	c.readers.Wait()
	close(c.events)
}

func (c *Channel) startPeer(ctx context.Context, conn net.Conn) {
	c.mu.Lock()
	c.nextID++
	p := newPeer(c.nextID, conn)
	c.peers[p.id] = p
	c.mu.Unlock()

	c.L().Info("new peer", "peer", p.id, "addr", conn.RemoteAddr())

	c.deliver(ctx, Event{Peer: p.id, Kind: Connected})

	c.readers.Add(1)
	go func() {
		defer c.readers.Done()
		p.readLoop(ctx, c)

		c.mu.Lock()
		delete(c.peers, p.id)
		c.mu.Unlock()

		c.deliver(ctx, Event{Peer: p.id, Kind: Disconnected})
	}()
}

// deliver queues an event, giving up when the context is cancelled so
// shutdown never deadlocks on a stopped consumer.
func (c *Channel) deliver(ctx context.Context, ev Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

// Send frames and writes a payload to one peer. The write has completed (or
// failed) by the time Send returns.
func (c *Channel) Send(id PeerID, payload []byte) error {
	c.mu.RLock()
	p, ok := c.peers[id]
	c.mu.RUnlock()

	if !ok {
		return fmt.Errorf("unknown peer %d", id)
	}

	return p.write(payload)
}

// Kick closes one peer's connection; its Disconnected event follows through
// the usual path.
func (c *Channel) Kick(id PeerID) {
	c.mu.RLock()
	p, ok := c.peers[id]
	c.mu.RUnlock()

	if ok {
		c.L().Warn("kicking peer", "peer", id)
		p.conn.Close()
	}
}

// Peers lists currently connected peer ids, in no particular order.
func (c *Channel) Peers() []PeerID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return maps.Keys(c.peers)
}

func (c *Channel) closeAll() {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.peers {
		p.conn.Close()
	}
}
