package testutil

import (
	"path/filepath"
	"testing"

	"github.com/vk/trackertools/internal/app"
)

// RunCatalogTest writes catalogHCL to a temporary fields.hcl and runs the
// terminal mode against it with the given edits.
func RunCatalogTest(t *testing.T, catalogHCL string, edits ...string) *HarnessResult {
	t.Helper()

	root := WriteFiles(t, map[string]string{"fields.hcl": catalogHCL})
	return RunApp(t, app.Config{
		FieldsPath: filepath.Join(root, "fields.hcl"),
		Settle:     true,
		Edits:      edits,
	})
}
