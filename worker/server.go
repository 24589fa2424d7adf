// Package worker contains the worker node's control loop: the Server
// aggregate, its reaction to channel events, and the service loop that
// wires the event multiplexer to the task state machine.
package worker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/EigenDog/dawg/types/ident"
	"github.com/EigenDog/dawg/types/msgworker"
	"github.com/EigenDog/dawg/worker/channel"
	"github.com/EigenDog/dawg/worker/mux"
	"github.com/EigenDog/dawg/worker/taskstate"
)

// ErrChannelClosed reports that the message channel's event stream ended
// while the service loop still wanted events. Outside of shutdown that is a
// transport failure, fatal by design.
var ErrChannelClosed = errors.New("worker: channel event stream closed")

// Server is the root aggregate: the channel handle and identity live for
// the process lifetime, the task state is replaced (never mutated in place)
// by each reaction.
type Server struct {
	ch    *channel.Channel
	ident *ident.Identity
	state taskstate.State
}

func NewServer(ch *channel.Channel, id *ident.Identity, sc *taskstate.StateCommon) *Server {
	return &Server{
		ch:    ch,
		ident: id,
		state: taskstate.NewAvailable(sc),
	}
}

func (s *Server) L() *slog.Logger {
	return slog.With("worker", s.ident.WorkerID)
}

// recvOp waits for the next channel event; the only pending operation this
// service loop ever arms.
func (s *Server) recvOp() mux.Op[channel.Event] {
	return func(ctx context.Context) (channel.Event, error) {
		select {
		case <-ctx.Done():
			return channel.Event{}, ctx.Err()
		case ev, ok := <-s.ch.Events():
			if !ok {
				// During shutdown the stream closing is expected.
				if ctx.Err() != nil {
					return channel.Event{}, ctx.Err()
				}
				return channel.Event{}, ErrChannelClosed
			}
			return ev, nil
		}
	}
}

// Serve reacts to channel events until the context is cancelled. Any other
// way out is a fatal condition and is returned.
func (s *Server) Serve(ctx context.Context) error {
	m := mux.New[*Server, channel.Event]()
	m.Arm(ctx, s.recvOp())

	s.L().Info("serving", "addr", s.ch.Addr().String(), "user", s.ident.User)

	srv := s
	for {
		var err error
		srv, err = m.Round(ctx, srv, reaction)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// reaction folds one completed event into the server. Every branch re-arms
// exactly one wait for the next event; request branches additionally emit
// exactly one response before that, so the response write always completes
// before the next wait is issued.
func reaction(srv *Server, ev channel.Event) (*Server, []mux.Op[channel.Event], error) {
	rearm := []mux.Op[channel.Event]{srv.recvOp()}

	switch ev.Kind {
	case channel.Connected, channel.Disconnected:
		// No per-connection bookkeeping.
		srv.L().Debug("peer event", "peer", ev.Peer, "kind", ev.Kind.String())
	case channel.Payload:
		srv.handleRequest(ev.Peer, ev.Bytes)
	}

	return srv, rearm, nil
}

// handleRequest decodes and dispatches one request, replying to the
// originating peer. A protocol violation is never silently dropped: it is
// logged and the offending connection is closed, while other peers keep
// being served.
func (s *Server) handleRequest(peer channel.PeerID, payload []byte) {
	req, err := msgworker.ParseRequest(payload)
	if err != nil {
		s.L().Error("protocol violation", "peer", peer, "err", err)
		s.ch.Kick(peer)
		return
	}

	var resp msgworker.WorkerMessage

	switch m := req.(type) {
	case *msgworker.Identify:
		resp = &msgworker.Identified{
			WorkerID: s.ident.WorkerID,
			User:     s.ident.User,
		}
	case *msgworker.QueryBestSplit:
		resp = s.state.Query(m.TaskID)
	case *msgworker.AssignTask:
		s.state, resp = s.state.Assign(m)
	case *msgworker.AddFeature:
		s.state, resp = s.state.AddFeature(m)
	case *msgworker.FinishSetup:
		s.state, resp = s.state.Finish(m)
	case *msgworker.DropTask:
		s.state, resp = s.state.Drop(m)
	}

	if err := s.ch.Send(peer, msgworker.Marshal(resp)); err != nil {
		// The peer is gone; its disconnect event follows on its own.
		s.L().Warn("could not send response", "peer", peer, "err", err)
	}
}
