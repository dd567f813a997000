package app_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/trackertools/internal/app"
	"github.com/vk/trackertools/internal/catalog"
	"github.com/vk/trackertools/internal/registry"
	"github.com/vk/trackertools/internal/server"
	"github.com/vk/trackertools/internal/store"
	"github.com/vk/trackertools/internal/testutil"
)

const doublerHCL = `
sections = ["Doubler"]

field "input" {
  section   = 0
  label     = "Input"
  initial   = 2
  min       = 0
  max       = 10
  formatter = "integer"
}

field "double" {
  section   = 0
  label     = "Double"
  initial   = 0
  read_only = true
  derive    = fields.input * 2
  format    = format("%.1f", value)
}
`

func TestRun_TerminalBuiltIn(t *testing.T) {
	t.Parallel()

	// --- Act ---
	result := testutil.RunApp(t, app.Config{Settle: true, Edits: []string{"projectTempo=60"}})

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Equal(t, 16, result.App.Registry().Len())
	assert.Contains(t, result.Output, "Project settings\n")
	assert.Contains(t, result.Output, "\nPitch → tempo\n")
	assert.Regexp(t, `Tempo\s+60\s+BPM\s+\[projectTempo\]`, result.Output)
	assert.Regexp(t, `secondsPerBeat\s+1\.000\s+s/beat\s+\[secondsPerBeat\] \(read-only\)`, result.Output)
	testutil.AssertEditApplied(t, result, "projectTempo")
}

func TestRun_TerminalNudges(t *testing.T) {
	t.Parallel()

	result := testutil.RunApp(t, app.Config{Settle: true, Edits: []string{"patternSize++", "patternSize+", "timeSignature--"}})

	require.NoError(t, result.Err)
	assert.Regexp(t, `Pattern\s+27\s+steps\s+\[patternSize\]`, result.Output)
	assert.Regexp(t, `Signature\s+1\s+beats/bar\s+\[timeSignature\]`, result.Output)
}

func TestRun_TerminalWithoutSettle(t *testing.T) {
	t.Parallel()

	result := testutil.RunApp(t, app.Config{})

	require.NoError(t, result.Err)
	assert.Regexp(t, `secondsPerBeat\s+0\.000\s`, result.Output)
	assert.Regexp(t, `Note\s+G5 / M -2\s`, result.Output)
}

func TestRun_TerminalRejectsEdits(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		edit string
		want error
	}{
		{"read-only", "changedBpm=1", registry.ErrReadOnly},
		{"unknown", "tempo=1", registry.ErrUnknownField},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result := testutil.RunApp(t, app.Config{Settle: true, Edits: []string{tc.edit}})

			require.Error(t, result.Err)
			assert.ErrorIs(t, result.Err, tc.want)
			assert.Empty(t, result.Output)
		})
	}
}

func TestRun_HCLCatalog(t *testing.T) {
	t.Parallel()

	result := testutil.RunCatalogTest(t, doublerHCL, "input=4")

	require.NoError(t, result.Err)
	assert.Equal(t, 2, result.App.Registry().Len())
	assert.Regexp(t, `Input\s+4\s+\[input\]`, result.Output)
	assert.Regexp(t, `Double\s+8\.0\s+\[double\] \(read-only\)`, result.Output)
	assert.Contains(t, result.LogOutput, "Field catalog loaded.")
}

func TestRun_HCLCatalogClamps(t *testing.T) {
	t.Parallel()

	result := testutil.RunCatalogTest(t, doublerHCL, "input=50")

	require.NoError(t, result.Err)
	assert.Regexp(t, `Double\s+20\.0\s`, result.Output)
}

func TestRun_HCLCatalogReadOnly(t *testing.T) {
	t.Parallel()

	result := testutil.RunCatalogTest(t, doublerHCL, "double=3")
	assert.ErrorIs(t, result.Err, registry.ErrReadOnly)
}

func TestNewApp_CatalogErrors(t *testing.T) {
	t.Parallel()

	result := testutil.RunCatalogTest(t, `field "broken" {`)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "failed to load field catalog")
	assert.Nil(t, result.App)

	missing := testutil.RunApp(t, app.Config{FieldsPath: filepath.Join(t.TempDir(), "nope.hcl")})
	require.Error(t, missing.Err)
	assert.Contains(t, missing.Err.Error(), "failed to load field catalog")

	unknown := testutil.RunCatalogTest(t, `
field "a" {
  initial = 1
  derive  = fields.b
}
`)
	require.Error(t, unknown.Err)
	assert.Contains(t, unknown.Err.Error(), "failed to compile field catalog")
}

func TestRun_ServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := testutil.RunAppWithContext(ctx, t, app.Config{Settle: true, Listen: "127.0.0.1:0"})
	assert.NoError(t, result.Err)
}

func TestRun_ServeRejectsBadEdit(t *testing.T) {
	t.Parallel()

	result := testutil.RunApp(t, app.Config{Settle: true, Listen: "127.0.0.1:0", Edits: []string{"newBpm=1"}})
	assert.ErrorIs(t, result.Err, registry.ErrReadOnly)
}

func TestRun_Remote(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping socket.io round trip in short mode")
	}

	// --- Arrange ---
	reg, err := catalog.New()
	require.NoError(t, err)
	st, err := store.New(reg, store.WithSettle())
	require.NoError(t, err)
	srv := server.New(context.Background(), st, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})

	// --- Act ---
	result := testutil.RunApp(t, app.Config{Remote: ts.URL, Edits: []string{"projectTempo=60", "projectTempo--"}})

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Nil(t, result.App.Registry())
	assert.Contains(t, result.Output, "projectTempo = 50\n")
	assert.Contains(t, result.Output, "secondsPerBeat = 1.2\n")
	assert.Equal(t, 50.0, srv.Snapshot().Float("projectTempo"))
}
