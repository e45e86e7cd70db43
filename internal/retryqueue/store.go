package retryqueue

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/temirov/gitmirror/internal/statefile"
	"github.com/temirov/gitmirror/internal/utils"
)

const (
	itemNotFoundMessageConstant       = "retry queue item not found"
	itemNotFoundErrorTemplateConstant = "%w: %s"
)

// ErrItemNotFound indicates an update targeted a clone URL absent from the queue.
var ErrItemNotFound = errors.New(itemNotFoundMessageConstant)

// Repository captures the upstream repository details carried by a queue item.
type Repository struct {
	Owner       string   `json:"owner"`
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	CloneURL    string   `json:"clone_url"`
	HTMLURL     string   `json:"html_url"`
	Description string   `json:"description,omitempty"`
	Language    string   `json:"language,omitempty"`
	Stars       int      `json:"stars,omitempty"`
	Forks       int      `json:"forks,omitempty"`
	Topics      []string `json:"topics,omitempty"`
}

// Item is a queued repository awaiting another mirror attempt. Items are keyed
// by Repository.CloneURL.
type Item struct {
	Repository  Repository `json:"repository"`
	Reason      string     `json:"reason"`
	AddedAt     time.Time  `json:"added_at"`
	RetryCount  int        `json:"retry_count"`
	LastRetryAt *time.Time `json:"last_retry_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

type queueDocument struct {
	Items []Item `json:"items"`
}

// Store persists the retry queue as a single JSON document, rewriting the
// whole file on every mutation.
type Store struct {
	statePath string
	clock     utils.Clock
	mutex     sync.Mutex
}

// NewStore constructs a store persisting queue state at statePath. A nil clock
// uses the system time source.
func NewStore(statePath string, clock utils.Clock) *Store {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &Store{statePath: statePath, clock: clock}
}

// Enqueue appends the repository when its clone URL is not already queued. It
// reports false without touching the existing entry when the repository is
// already present.
func (store *Store) Enqueue(repository Repository, reason string) (bool, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	document, loadError := store.loadLocked()
	if loadError != nil {
		return false, loadError
	}

	for _, existingItem := range document.Items {
		if existingItem.Repository.CloneURL == repository.CloneURL {
			return false, nil
		}
	}

	document.Items = append(document.Items, Item{
		Repository: repository,
		Reason:     reason,
		AddedAt:    store.clock.Now(),
	})
	if saveError := statefile.SaveJSON(store.statePath, document); saveError != nil {
		return false, saveError
	}
	return true, nil
}

// Dequeue removes the item keyed by cloneURL, reporting whether it was present.
func (store *Store) Dequeue(cloneURL string) (bool, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	document, loadError := store.loadLocked()
	if loadError != nil {
		return false, loadError
	}

	remainingItems := make([]Item, 0, len(document.Items))
	removed := false
	for _, existingItem := range document.Items {
		if existingItem.Repository.CloneURL == cloneURL {
			removed = true
			continue
		}
		remainingItems = append(remainingItems, existingItem)
	}
	if !removed {
		return false, nil
	}

	document.Items = remainingItems
	if saveError := statefile.SaveJSON(store.statePath, document); saveError != nil {
		return false, saveError
	}
	return true, nil
}

// List returns the queued items in insertion order.
func (store *Store) List() ([]Item, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	document, loadError := store.loadLocked()
	if loadError != nil {
		return nil, loadError
	}
	items := make([]Item, len(document.Items))
	copy(items, document.Items)
	return items, nil
}

// Contains reports whether the clone URL is currently queued.
func (store *Store) Contains(cloneURL string) (bool, error) {
	items, listError := store.List()
	if listError != nil {
		return false, listError
	}
	for _, existingItem := range items {
		if existingItem.Repository.CloneURL == cloneURL {
			return true, nil
		}
	}
	return false, nil
}

// Clear removes every queued item.
func (store *Store) Clear() error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return statefile.SaveJSON(store.statePath, queueDocument{Items: []Item{}})
}

// Update applies mutator to the item keyed by cloneURL in place, stamping
// LastRetryAt with the current time. The item keeps its queue position.
func (store *Store) Update(cloneURL string, mutator func(item *Item)) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	document, loadError := store.loadLocked()
	if loadError != nil {
		return loadError
	}

	for itemIndex := range document.Items {
		if document.Items[itemIndex].Repository.CloneURL != cloneURL {
			continue
		}
		retryTime := store.clock.Now()
		document.Items[itemIndex].LastRetryAt = &retryTime
		if mutator != nil {
			mutator(&document.Items[itemIndex])
		}
		return statefile.SaveJSON(store.statePath, document)
	}

	return fmt.Errorf(itemNotFoundErrorTemplateConstant, ErrItemNotFound, cloneURL)
}

func (store *Store) loadLocked() (queueDocument, error) {
	var document queueDocument
	found, loadError := statefile.LoadJSON(store.statePath, &document)
	if loadError != nil {
		var corruptError statefile.CorruptStateError
		if !errors.As(loadError, &corruptError) {
			return queueDocument{}, loadError
		}
		found = false
	}
	if !found {
		return queueDocument{Items: []Item{}}, nil
	}
	if document.Items == nil {
		document.Items = []Item{}
	}
	return document, nil
}
