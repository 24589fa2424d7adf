// Package client is a typed client over the worker wire protocol, used by
// the command-line tools and end-to-end tests. One client drives one
// connection; it is not safe for concurrent use.
package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"

	"github.com/EigenDog/dawg/types/bin"
	"github.com/EigenDog/dawg/types/dial"
	"github.com/EigenDog/dawg/types/msgworker"
	"github.com/EigenDog/dawg/worker/channel"
)

type Client struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
}

// RejectedError is a TaskRejected reply surfaced as an error by the setup
// calls.
type RejectedError struct {
	TaskID uint64
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("task %d rejected: %s", e.TaskID, e.Reason)
}

func Dial(ctx context.Context, host string, port uint16) (*Client, error) {
	conn, err := dial.TCP(ctx, dial.Opts{Host: host, Port: port})
	if err != nil {
		return nil, err
	}

	return Wrap(conn), nil
}

// Wrap takes over an established connection.
func Wrap(conn net.Conn) *Client {
	return &Client{
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) roundTrip(req msgworker.WorkerMessage) (msgworker.WorkerMessage, error) {
	payload := msgworker.Marshal(req)

	if err := bin.WriteUint32(c.writer, uint32(len(payload))); err != nil {
		return nil, fmt.Errorf("could not write frame header: %w", err)
	}
	if _, err := c.writer.Write(payload); err != nil {
		return nil, fmt.Errorf("could not write payload: %w", err)
	}
	if err := c.writer.Flush(); err != nil {
		return nil, fmt.Errorf("could not flush request: %w", err)
	}

	length, err := bin.ReadUint32(c.reader)
	if err != nil {
		return nil, fmt.Errorf("could not read frame header: %w", err)
	}
	if length > channel.MaxPayloadSize {
		return nil, fmt.Errorf("oversized response frame (%d bytes)", length)
	}

	payload = make([]byte, length)
	if _, err := io.ReadFull(c.reader, payload); err != nil {
		return nil, fmt.Errorf("could not read response payload: %w", err)
	}

	return msgworker.ParseResponse(payload)
}

func (c *Client) Identify() (*msgworker.Identified, error) {
	resp, err := c.roundTrip(&msgworker.Identify{})
	if err != nil {
		return nil, err
	}

	id, ok := resp.(*msgworker.Identified)
	if !ok {
		return nil, fmt.Errorf("unexpected reply %T to identify", resp)
	}
	return id, nil
}

func (c *Client) QueryBestSplit(taskID uint64) (*msgworker.BestSplitResult, error) {
	resp, err := c.roundTrip(&msgworker.QueryBestSplit{TaskID: taskID})
	if err != nil {
		return nil, err
	}

	res, ok := resp.(*msgworker.BestSplitResult)
	if !ok {
		return nil, fmt.Errorf("unexpected reply %T to split query", resp)
	}
	return res, nil
}

// ack maps an ack/rejected reply to an error.
func (c *Client) ack(req msgworker.WorkerMessage) error {
	resp, err := c.roundTrip(req)
	if err != nil {
		return err
	}

	switch m := resp.(type) {
	case *msgworker.TaskAck:
		return nil
	case *msgworker.TaskRejected:
		return &RejectedError{TaskID: m.TaskID, Reason: m.Reason}
	default:
		return fmt.Errorf("unexpected reply %T to %T", resp, req)
	}
}

func (c *Client) AssignTask(req *msgworker.AssignTask) error {
	return c.ack(req)
}

func (c *Client) AddFeature(taskID uint64, featureID uint32, vals []float64) error {
	req := &msgworker.AddFeature{TaskID: taskID, FeatureID: featureID}
	req.SetValues(vals)
	return c.ack(req)
}

func (c *Client) FinishSetup(taskID uint64) error {
	return c.ack(&msgworker.FinishSetup{TaskID: taskID})
}

func (c *Client) DropTask(taskID uint64) error {
	return c.ack(&msgworker.DropTask{TaskID: taskID})
}
