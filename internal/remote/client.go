// Package remote drives a calculator session hosted by another process
// over its socket.io live channel.
package remote

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/vk/trackertools/internal/ctxlog"
	"github.com/vk/trackertools/internal/server"
	"github.com/vk/trackertools/internal/value"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultPath is the socket.io endpoint path used when the URL has none.
const DefaultPath = "/socket.io/"

// Options configures a Client.
type Options struct {
	// Timeout bounds the connection handshake and every acknowledged edit.
	Timeout            time.Duration
	Namespace          string
	InsecureSkipVerify bool
}

// Client is a connected socket.io session.
type Client struct {
	io      *socket.Socket
	timeout time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	sections []server.SectionInfo
	entries  []server.Entry
	ready    chan struct{}
	once     sync.Once
}

// Dial connects to the server at rawURL and waits for the handshake.
func Dial(ctx context.Context, rawURL string, o Options) (*Client, error) {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	logger := ctxlog.FromContext(ctx).With("remote", rawURL)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("URL %q needs a scheme and a host", rawURL)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(endpointPath(parsedURL.Path))
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))
	opts.SetReconnection(false)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace(o.Namespace), opts)

	c := &Client{io: io, timeout: o.Timeout, logger: logger, ready: make(chan struct{})}
	io.On(types.EventName(server.EventFields), c.onFields)
	io.On(types.EventName(server.EventSnapshot), c.onSnapshot)

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		logger.Debug("Connection failed", "error", err)
		connectChan <- err
	})

	logger.Debug("Initiating connection...")
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return c, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(o.Timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", o.Timeout)
	}
}

// Close disconnects from the server.
func (c *Client) Close() {
	c.logger.Debug("Disconnecting", "sid", c.io.Id())
	c.io.Disconnect()
}

// Snapshot waits for the first snapshot pushed by the server and returns
// the latest one together with the field layout.
func (c *Client) Snapshot(ctx context.Context) ([]server.SectionInfo, []server.Entry, error) {
	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-c.ready:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case <-timer.C:
		return nil, nil, fmt.Errorf("timed out after %v waiting for the initial snapshot", c.timeout)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sections, c.entries, nil
}

type ackResult struct {
	resp server.SetFieldResponse
	err  error
}

// SetField sends one edit and waits for the server's acknowledgement. A
// rejected edit returns an *Error.
func (c *Client) SetField(ctx context.Context, id string, v value.Value) ([]server.Entry, error) {
	c.logger.Debug("Emitting edit", "field", id, "value", v.String())
	return c.emit(ctx, id, server.EventSetField, server.SetFieldRequest{ID: id, Value: v})
}

// Nudge asks the server to move id by steps increments of its step, or of
// its large step when large is set.
func (c *Client) Nudge(ctx context.Context, id string, steps int, large bool) ([]server.Entry, error) {
	c.logger.Debug("Emitting nudge", "field", id, "steps", steps, "large", large)
	return c.emit(ctx, id, server.EventNudgeField, server.NudgeFieldRequest{ID: id, Steps: steps, Large: large})
}

func (c *Client) emit(ctx context.Context, id, event string, payload any) ([]server.Entry, error) {
	done := make(chan ackResult, 1)
	c.io.Timeout(c.timeout).EmitWithAck(event, payload)(func(data []any, err error) {
		if err != nil {
			done <- ackResult{err: fmt.Errorf("%s %q: %w", event, id, err)}
			return
		}
		resp, err := decodeAck(data)
		done <- ackResult{resp: resp, err: err}
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		if !res.resp.OK {
			c.logger.Warn("Edit rejected", "field", id, "code", res.resp.Code, "error", res.resp.Error)
			return nil, &Error{Code: res.resp.Code, Message: res.resp.Error}
		}
		c.setEntries(res.resp.Snapshot)
		return res.resp.Snapshot, nil
	}
}

func (c *Client) onFields(data ...any) {
	var sections []server.SectionInfo
	if err := decodeEvent(data, &sections); err != nil {
		c.logger.Warn("Malformed fields event", "error", err)
		return
	}
	c.mu.Lock()
	c.sections = sections
	c.mu.Unlock()
}

func (c *Client) onSnapshot(data ...any) {
	var entries []server.Entry
	if err := decodeEvent(data, &entries); err != nil {
		c.logger.Warn("Malformed snapshot event", "error", err)
		return
	}
	c.setEntries(entries)
	c.once.Do(func() { close(c.ready) })
}

func (c *Client) setEntries(entries []server.Entry) {
	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
}

func endpointPath(p string) string {
	if p == "" || p == "/" {
		return DefaultPath
	}
	return p
}

func namespace(ns string) string {
	if ns == "" {
		return "/"
	}
	return ns
}
