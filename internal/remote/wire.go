package remote

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vk/trackertools/internal/registry"
	"github.com/vk/trackertools/internal/server"
	"github.com/vk/trackertools/internal/store"
)

// Error is an edit the server refused.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Is maps server error codes onto the local sentinel errors, so callers can
// use errors.Is the same way for local and remote sessions.
func (e *Error) Is(target error) bool {
	switch e.Code {
	case server.CodeUnknownField:
		return target == registry.ErrUnknownField
	case server.CodeReadOnly:
		return target == registry.ErrReadOnly
	case server.CodeDerivation:
		return target == store.ErrDerivation
	}
	return false
}

// decodeAck reads the acknowledgement of a set_field event.
func decodeAck(data []any) (server.SetFieldResponse, error) {
	var resp server.SetFieldResponse
	if len(data) == 0 {
		return resp, errors.New("empty acknowledgement")
	}
	if err := remarshal(data[0], &resp); err != nil {
		return resp, fmt.Errorf("malformed acknowledgement: %w", err)
	}
	if !resp.OK && resp.Error == "" {
		return resp, errors.New("acknowledgement carries neither a snapshot nor an error")
	}
	return resp, nil
}

// decodeEvent reads the first argument of a pushed event into out.
func decodeEvent(data []any, out any) error {
	if len(data) == 0 {
		return errors.New("event has no payload")
	}
	return remarshal(data[0], out)
}

// remarshal converts generic decoded JSON into a typed value.
func remarshal(in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
