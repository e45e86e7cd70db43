package blocklist_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitmirror/internal/blocklist"
)

const storeTestPatternConstant = "github.com/spammy/*"

func newTestStore(testInstance *testing.T) *blocklist.Store {
	testInstance.Helper()
	return blocklist.NewStore(filepath.Join(testInstance.TempDir(), "blocklist.yaml"))
}

func TestStoreLoadMissingFileReturnsEmptyList(testInstance *testing.T) {
	store := newTestStore(testInstance)

	patterns, loadError := store.Load()
	require.NoError(testInstance, loadError)
	require.Empty(testInstance, patterns)
}

func TestStoreAddPersistsPattern(testInstance *testing.T) {
	store := newTestStore(testInstance)

	added, addError := store.Add(storeTestPatternConstant)
	require.NoError(testInstance, addError)
	require.True(testInstance, added)

	patterns, loadError := store.Load()
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, []string{storeTestPatternConstant}, patterns)
}

func TestStoreAddIsIdempotent(testInstance *testing.T) {
	store := newTestStore(testInstance)

	_, firstAddError := store.Add(storeTestPatternConstant)
	require.NoError(testInstance, firstAddError)

	addedAgain, secondAddError := store.Add("https://" + storeTestPatternConstant)
	require.NoError(testInstance, secondAddError)
	require.False(testInstance, addedAgain)

	patterns, loadError := store.Load()
	require.NoError(testInstance, loadError)
	require.Len(testInstance, patterns, 1)
}

func TestStoreRemoveDeletesPattern(testInstance *testing.T) {
	store := newTestStore(testInstance)

	_, addError := store.Add(storeTestPatternConstant)
	require.NoError(testInstance, addError)

	removed, removeError := store.Remove(storeTestPatternConstant)
	require.NoError(testInstance, removeError)
	require.True(testInstance, removed)

	patterns, loadError := store.Load()
	require.NoError(testInstance, loadError)
	require.Empty(testInstance, patterns)
}

func TestStoreRemoveReportsMissingPattern(testInstance *testing.T) {
	store := newTestStore(testInstance)

	removed, removeError := store.Remove(storeTestPatternConstant)
	require.NoError(testInstance, removeError)
	require.False(testInstance, removed)
}

func TestStorePreservesInsertionOrder(testInstance *testing.T) {
	store := newTestStore(testInstance)

	orderedPatterns := []string{"github.com/first/*", "github.com/second/repo", "github.com/third/*"}
	for _, pattern := range orderedPatterns {
		_, addError := store.Add(pattern)
		require.NoError(testInstance, addError)
	}

	patterns, loadError := store.Load()
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, orderedPatterns, patterns)
}
