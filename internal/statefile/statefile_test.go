package statefile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitmirror/internal/statefile"
)

type testStateDocument struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

func TestSaveJSONRoundTrip(testInstance *testing.T) {
	statePath := filepath.Join(testInstance.TempDir(), "nested", "state.json")
	document := testStateDocument{Date: "2026-09-01", Count: 7}

	require.NoError(testInstance, statefile.SaveJSON(statePath, document))

	var loaded testStateDocument
	found, loadError := statefile.LoadJSON(statePath, &loaded)
	require.NoError(testInstance, loadError)
	require.True(testInstance, found)
	require.Equal(testInstance, document, loaded)
}

func TestLoadJSONReportsMissingFile(testInstance *testing.T) {
	statePath := filepath.Join(testInstance.TempDir(), "missing.json")

	var loaded testStateDocument
	found, loadError := statefile.LoadJSON(statePath, &loaded)
	require.NoError(testInstance, loadError)
	require.False(testInstance, found)
}

func TestLoadJSONReportsCorruptContents(testInstance *testing.T) {
	statePath := filepath.Join(testInstance.TempDir(), "corrupt.json")
	require.NoError(testInstance, os.WriteFile(statePath, []byte("{not json"), 0o644))

	var loaded testStateDocument
	_, loadError := statefile.LoadJSON(statePath, &loaded)
	require.Error(testInstance, loadError)
	require.IsType(testInstance, statefile.CorruptStateError{}, loadError)
}

func TestSaveJSONLeavesNoTemporaryFiles(testInstance *testing.T) {
	stateDirectory := testInstance.TempDir()
	statePath := filepath.Join(stateDirectory, "state.json")
	require.NoError(testInstance, statefile.SaveJSON(statePath, testStateDocument{Date: "2026-09-01"}))

	entries, readError := os.ReadDir(stateDirectory)
	require.NoError(testInstance, readError)
	require.Len(testInstance, entries, 1)
	require.Equal(testInstance, "state.json", entries[0].Name())
}
