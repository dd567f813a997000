package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext_FallsBackToDefault(t *testing.T) {
	t.Parallel()
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestWithLogger(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}

func TestWith_AddsAttributes(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := With(WithLogger(context.Background(), logger), "field", "projectTempo")
	FromContext(ctx).Info("edit applied")

	assert.Contains(t, buf.String(), "field=projectTempo")
	assert.Contains(t, buf.String(), `msg="edit applied"`)
}
