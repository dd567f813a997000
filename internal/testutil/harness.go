package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/trackertools/internal/app"
	"github.com/vk/trackertools/internal/hcl"
)

// HarnessResult holds the outcomes of an application run.
type HarnessResult struct {
	Output    string
	LogOutput string
	Err       error
	App       *app.App
}

// WriteFiles writes files (relative path to content) under a fresh
// temporary directory and returns that directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}
	return root
}

// RunApp builds an App from cfg with debug logging and runs it once using a
// default background context.
func RunApp(t *testing.T, cfg app.Config) *HarnessResult {
	t.Helper()
	return RunAppWithContext(context.Background(), t, cfg)
}

// RunAppWithContext is RunApp with a caller-provided context. Startup and
// run errors both land in Err.
func RunAppWithContext(ctx context.Context, t *testing.T, cfg app.Config) *HarnessResult {
	t.Helper()

	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.RemoteTimeout == 0 {
		cfg.RemoteTimeout = 10 * time.Second
	}

	out := &SafeBuffer{}
	logs := &SafeBuffer{}
	result := &HarnessResult{}

	t.Cleanup(func() {
		if os.Getenv("TRACKER_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	appConfig, err := app.NewConfig(cfg)
	if err != nil {
		result.Err = err
		return result
	}

	testApp, err := app.NewApp(out, logs, appConfig, hcl.NewLoader())
	if err != nil {
		result.Err = err
		result.LogOutput = logs.String()
		return result
	}
	result.App = testApp
	result.Err = testApp.Run(ctx)
	result.Output = out.String()
	result.LogOutput = logs.String()
	return result
}
