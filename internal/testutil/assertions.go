package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertEditApplied checks the log output within a HarnessResult to confirm
// that an edit of the given field went through.
func AssertEditApplied(t *testing.T, result *HarnessResult, fieldID string) {
	t.Helper()

	expected := fmt.Sprintf("field=%s", fieldID)
	for _, line := range strings.Split(result.LogOutput, "\n") {
		if strings.Contains(line, "Edit applied.") && strings.Contains(line, expected) {
			return
		}
	}
	require.Fail(t, "edit not applied", "expected an applied edit of field '%s' in the logs", fieldID)
}
