package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// updateGolden rewrites golden files instead of comparing against them.
var updateGolden = os.Getenv("UPDATE_GOLDEN") == "true"

// GoldenJSON marshals value and compares it with testdata/golden/name,
// ignoring formatting. UPDATE_GOLDEN=true rewrites the file instead.
func GoldenJSON(t *testing.T, name string, value any) {
	t.Helper()

	actual, err := json.MarshalIndent(value, "", "  ")
	require.NoError(t, err, "failed to marshal golden value")

	path := filepath.Join("testdata", "golden", name)
	if updateGolden {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, append(actual, '\n'), 0o644))
		t.Logf("Updated golden file: %s", path)
		return
	}

	golden, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read golden file %s (run with UPDATE_GOLDEN=true to create it)", path)
	assert.JSONEq(t, string(golden), string(actual), "output does not match golden file %s", name)
}
