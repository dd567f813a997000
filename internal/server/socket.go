package server

import (
	"errors"
	"fmt"

	"github.com/vk/trackertools/internal/ctxlog"
	"github.com/vk/trackertools/internal/value"
	"github.com/zishang520/socket.io/v2/socket"
)

// onConnection sends the catalog and the current snapshot to a new client
// and listens for its edits.
func (s *Server) onConnection(clients ...any) {
	client, ok := clients[0].(*socket.Socket)
	if !ok {
		return
	}
	ctx := ctxlog.With(s.ctx, "sid", client.Id())
	logger := ctxlog.FromContext(ctx)
	logger.Info("Client connected.")
	s.metrics.ClientConnected()

	client.Emit(EventFields, Sections(s.reg))
	// Under the lock, so a concurrent commit's broadcast cannot overtake it.
	s.mu.Lock()
	client.Emit(EventSnapshot, Entries(s.reg, s.store.Snapshot()))
	s.mu.Unlock()

	client.On(EventSetField, func(args ...any) {
		req, ack, err := decodeSetField(args)
		if err != nil {
			logger.Warn("Malformed set_field event.", "error", err)
			reply(ack, failure(err))
			return
		}
		snap, err := s.SetField(ctx, req.ID, req.Value)
		if err != nil {
			reply(ack, failure(err))
			return
		}
		reply(ack, SetFieldResponse{OK: true, Snapshot: Entries(s.reg, snap)})
	})

	client.On(EventNudgeField, func(args ...any) {
		req, ack, err := decodeNudgeField(args)
		if err != nil {
			logger.Warn("Malformed nudge_field event.", "error", err)
			reply(ack, failure(err))
			return
		}
		snap, err := s.Nudge(ctx, req.ID, req.Steps, req.Large)
		if err != nil {
			reply(ack, failure(err))
			return
		}
		reply(ack, SetFieldResponse{OK: true, Snapshot: Entries(s.reg, snap)})
	})

	client.On("disconnect", func(reason ...any) {
		logger.Info("Client disconnected.", "reason", fmt.Sprint(reason...))
		s.metrics.ClientDisconnected()
	})
}

// decodeSetField reads a set_field payload. The acknowledgement callback,
// when the client asked for one, is the last argument.
func decodeSetField(args []any) (SetFieldRequest, socket.Ack, error) {
	payload, id, ack, err := decodePayload(args)
	if err != nil {
		return SetFieldRequest{}, ack, err
	}
	v, err := value.FromAny(payload["value"])
	if err != nil {
		return SetFieldRequest{}, ack, fmt.Errorf("field %q: %w", id, err)
	}
	return SetFieldRequest{ID: id, Value: v}, ack, nil
}

// decodeNudgeField reads a nudge_field payload. Steps must be a non-zero
// whole number.
func decodeNudgeField(args []any) (NudgeFieldRequest, socket.Ack, error) {
	payload, id, ack, err := decodePayload(args)
	if err != nil {
		return NudgeFieldRequest{}, ack, err
	}
	steps, err := wholeSteps(payload["steps"])
	if err != nil {
		return NudgeFieldRequest{}, ack, fmt.Errorf("field %q: %w", id, err)
	}
	large, _ := payload["large"].(bool)
	return NudgeFieldRequest{ID: id, Steps: steps, Large: large}, ack, nil
}

func decodePayload(args []any) (map[string]any, string, socket.Ack, error) {
	var ack socket.Ack
	if n := len(args); n > 0 {
		if fn, ok := args[n-1].(socket.Ack); ok {
			ack = fn
			args = args[:n-1]
		}
	}
	if len(args) == 0 {
		return nil, "", ack, errors.New("missing payload")
	}
	payload, ok := args[0].(map[string]any)
	if !ok {
		return nil, "", ack, fmt.Errorf("payload must be an object, got %T", args[0])
	}
	id, _ := payload["id"].(string)
	if id == "" {
		return nil, "", ack, errors.New("payload needs a string id")
	}
	return payload, id, ack, nil
}

func failure(err error) SetFieldResponse {
	_, code := classify(err)
	return SetFieldResponse{Error: err.Error(), Code: code}
}

func reply(ack socket.Ack, resp SetFieldResponse) {
	if ack != nil {
		ack([]any{resp}, nil)
	}
}
