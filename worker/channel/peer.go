package channel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/EigenDog/dawg/types/bin"
)

// peer is one accepted connection.
type peer struct {
	id   PeerID
	conn net.Conn

	// Not thread-safe; owned by readLoop.
	reader *bufio.Reader

	// Guards writer; Send may be called for different peers concurrently.
	writeMu sync.Mutex
	writer  *bufio.Writer
}

func newPeer(id PeerID, conn net.Conn) *peer {
	return &peer{
		id:     id,
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
	}
}

// readLoop turns frames into payload events until the connection ends.
func (p *peer) readLoop(ctx context.Context, c *Channel) {
	defer p.conn.Close()

	for {
		length, err := bin.ReadUint32(p.reader)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) && ctx.Err() == nil {
				c.L().Warn("peer read failed", "peer", p.id, "err", err)
			}
			return
		}

		if length > MaxPayloadSize {
			c.L().Warn("oversized frame", "peer", p.id, "len", length)
			return
		}

		payload := make([]byte, length)
		if _, err := io.ReadFull(p.reader, payload); err != nil {
			if ctx.Err() == nil {
				c.L().Warn("peer read failed mid-frame", "peer", p.id, "err", err)
			}
			return
		}

		c.deliver(ctx, Event{Peer: p.id, Kind: Payload, Bytes: payload})
	}
}

func (p *peer) write(payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return fmt.Errorf("payload of %d bytes exceeds frame cap", len(payload))
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if err := bin.WriteUint32(p.writer, uint32(len(payload))); err != nil {
		return fmt.Errorf("could not write frame header: %w", err)
	}

	if _, err := p.writer.Write(payload); err != nil {
		return fmt.Errorf("could not write payload: %w", err)
	}

	return p.writer.Flush()
}
