package blocklist

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	storeDirectoryPermissionsConstant = 0o755
	storeFilePermissionsConstant      = 0o644
	storeReadErrorTemplateConstant    = "reading blocklist file %s failed: %w"
	storeDecodeErrorTemplateConstant  = "decoding blocklist file %s failed: %w"
	storeEncodeErrorTemplateConstant  = "encoding blocklist file %s failed: %w"
	storeWriteErrorTemplateConstant   = "writing blocklist file %s failed: %w"
)

type storeDocument struct {
	Patterns []string `yaml:"patterns"`
}

// Store persists user-managed blocklist patterns as a YAML document.
type Store struct {
	path  string
	mutex sync.Mutex
}

// NewStore constructs a store persisting patterns at the provided path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the persisted patterns in insertion order. A missing file reads
// as an empty list.
func (store *Store) Load() ([]string, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.loadLocked()
}

// Add appends the pattern when absent. It reports false when the pattern was
// already present; the stored list is left untouched in that case.
func (store *Store) Add(pattern string) (bool, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	patterns, loadError := store.loadLocked()
	if loadError != nil {
		return false, loadError
	}

	normalizedCandidate := NormalizeRepositoryURL(pattern)
	for _, existingPattern := range patterns {
		if NormalizeRepositoryURL(existingPattern) == normalizedCandidate {
			return false, nil
		}
	}

	patterns = append(patterns, pattern)
	if saveError := store.saveLocked(patterns); saveError != nil {
		return false, saveError
	}
	return true, nil
}

// Remove deletes the pattern when present. It reports false when no stored
// pattern matched.
func (store *Store) Remove(pattern string) (bool, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	patterns, loadError := store.loadLocked()
	if loadError != nil {
		return false, loadError
	}

	normalizedCandidate := NormalizeRepositoryURL(pattern)
	remainingPatterns := make([]string, 0, len(patterns))
	removed := false
	for _, existingPattern := range patterns {
		if NormalizeRepositoryURL(existingPattern) == normalizedCandidate {
			removed = true
			continue
		}
		remainingPatterns = append(remainingPatterns, existingPattern)
	}

	if !removed {
		return false, nil
	}
	if saveError := store.saveLocked(remainingPatterns); saveError != nil {
		return false, saveError
	}
	return true, nil
}

func (store *Store) loadLocked() ([]string, error) {
	contents, readError := os.ReadFile(store.path)
	if readError != nil {
		if os.IsNotExist(readError) {
			return []string{}, nil
		}
		return nil, fmt.Errorf(storeReadErrorTemplateConstant, store.path, readError)
	}

	var document storeDocument
	if decodeError := yaml.Unmarshal(contents, &document); decodeError != nil {
		return nil, fmt.Errorf(storeDecodeErrorTemplateConstant, store.path, decodeError)
	}
	if document.Patterns == nil {
		return []string{}, nil
	}
	return document.Patterns, nil
}

func (store *Store) saveLocked(patterns []string) error {
	encoded, encodeError := yaml.Marshal(storeDocument{Patterns: patterns})
	if encodeError != nil {
		return fmt.Errorf(storeEncodeErrorTemplateConstant, store.path, encodeError)
	}

	if mkdirError := os.MkdirAll(filepath.Dir(store.path), storeDirectoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(storeWriteErrorTemplateConstant, store.path, mkdirError)
	}
	if writeError := os.WriteFile(store.path, encoded, storeFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(storeWriteErrorTemplateConstant, store.path, writeError)
	}
	return nil
}
