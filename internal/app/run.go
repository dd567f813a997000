package app

import (
	"context"
	"fmt"

	"github.com/vk/trackertools/internal/ctxlog"
	"github.com/vk/trackertools/internal/remote"
	"github.com/vk/trackertools/internal/render"
	"github.com/vk/trackertools/internal/server"
	"github.com/vk/trackertools/internal/snapshot"
	"github.com/vk/trackertools/internal/store"
	"github.com/vk/trackertools/internal/value"
)

// Run executes the configured mode until it completes or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "mode", a.config.Mode().String(), "edits", len(a.config.edits))

	var err error
	switch a.config.Mode() {
	case ModeServe:
		err = a.serve(ctx)
	case ModeRemote:
		err = a.remote(ctx)
	default:
		err = a.terminal(ctx)
	}

	a.logger.Debug("App.Run method finished.", "error", err)
	return err
}

func (a *App) newStore() (*store.Store, error) {
	var opts []store.Option
	if a.config.Settle {
		opts = append(opts, store.WithSettle())
	}
	st, err := store.New(a.registry, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise store: %w", err)
	}
	return st, nil
}

// terminal applies the edits in order and prints the grouped snapshot.
func (a *App) terminal(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	st, err := a.newStore()
	if err != nil {
		return err
	}

	for _, e := range a.config.edits {
		if err := a.registry.Editable(e.ID); err != nil {
			return fmt.Errorf("edit %s: %w", e, err)
		}
		def, err := a.registry.Get(e.ID)
		if err != nil {
			return fmt.Errorf("edit %s: %w", e, err)
		}
		prev := st.Snapshot()
		raw := e.Raw(def, prev.Value(e.ID))
		next, err := st.SetField(e.ID, raw)
		if err != nil {
			return fmt.Errorf("edit %s: %w", e, err)
		}
		logger.Debug("Edit applied.", "field", e.ID, "value", raw.String(), "changed", prev.Diff(next))
	}

	return render.Sections(a.outW, a.registry, st.Snapshot())
}

// serve applies the edits and then hosts the session until ctx is done.
func (a *App) serve(ctx context.Context) error {
	st, err := a.newStore()
	if err != nil {
		return err
	}
	srv := server.New(ctx, st, nil)

	for _, e := range a.config.edits {
		if e.IsNudge() {
			_, err = srv.Nudge(ctx, e.ID, e.Steps, e.Large)
		} else {
			_, err = srv.SetField(ctx, e.ID, e.Value)
		}
		if err != nil {
			srv.Close()
			return fmt.Errorf("edit %s: %w", e, err)
		}
	}
	return srv.ListenAndServe(ctx, a.config.Listen)
}

// remote sends the edits to a running server and prints its final snapshot.
func (a *App) remote(ctx context.Context) error {
	c, err := remote.Dial(ctx, a.config.Remote, remote.Options{Timeout: a.config.RemoteTimeout})
	if err != nil {
		return err
	}
	defer c.Close()

	_, entries, err := c.Snapshot(ctx)
	if err != nil {
		return err
	}
	for _, e := range a.config.edits {
		if e.IsNudge() {
			entries, err = c.Nudge(ctx, e.ID, e.Steps, e.Large)
		} else {
			entries, err = c.SetField(ctx, e.ID, e.Value)
		}
		if err != nil {
			return fmt.Errorf("edit %s: %w", e, err)
		}
	}
	return render.Pairs(a.outW, entrySnapshot(entries))
}

func entrySnapshot(entries []server.Entry) snapshot.Snapshot {
	order := make([]string, 0, len(entries))
	values := make(map[string]value.Value, len(entries))
	for _, e := range entries {
		order = append(order, e.ID)
		values[e.ID] = e.Value
	}
	return snapshot.New(order, values)
}
