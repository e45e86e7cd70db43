package quota

import (
	"errors"
	"sync"

	"github.com/temirov/gitmirror/internal/statefile"
	"github.com/temirov/gitmirror/internal/utils"
)

const (
	dateLayoutConstant       = "2006-01-02"
	defaultDailyLimitConstant = 100
)

type trackerState struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Tracker enforces the daily mirror creation quota. State lives in a single
// JSON document containing the local calendar date and the count of mirrors
// created on that date; the count rolls over lazily when the date changes.
type Tracker struct {
	statePath  string
	dailyLimit int
	clock      utils.Clock
	mutex      sync.Mutex
}

// NewTracker constructs a tracker persisting state at statePath. A negative
// dailyLimit falls back to the default; a limit of zero is honored and pauses
// mirror creation entirely. A nil clock uses the system time source.
func NewTracker(statePath string, dailyLimit int, clock utils.Clock) *Tracker {
	if dailyLimit < 0 {
		dailyLimit = defaultDailyLimitConstant
	}
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &Tracker{statePath: statePath, dailyLimit: dailyLimit, clock: clock}
}

// Limit returns the configured daily limit.
func (tracker *Tracker) Limit() int {
	return tracker.dailyLimit
}

// CountToday returns the number of mirrors created during the current local day.
func (tracker *Tracker) CountToday() (int, error) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	state, loadError := tracker.loadCurrentLocked()
	if loadError != nil {
		return 0, loadError
	}
	return state.Count, nil
}

// Remaining returns how many mirror creations are still allowed today.
func (tracker *Tracker) Remaining() (int, error) {
	countToday, countError := tracker.CountToday()
	if countError != nil {
		return 0, countError
	}
	remaining := tracker.dailyLimit - countToday
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// CanProceed reports whether another mirror creation fits inside today's quota.
func (tracker *Tracker) CanProceed() (bool, error) {
	remaining, remainingError := tracker.Remaining()
	if remainingError != nil {
		return false, remainingError
	}
	return remaining > 0, nil
}

// Increment records one successful mirror creation against today's quota.
func (tracker *Tracker) Increment() error {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()

	state, loadError := tracker.loadCurrentLocked()
	if loadError != nil {
		return loadError
	}
	state.Count++
	return statefile.SaveJSON(tracker.statePath, state)
}

// loadCurrentLocked reads the persisted state and applies the lazy calendar
// rollover. A missing or corrupt state file reads as a fresh day; a rollover
// is persisted immediately so concurrent processes observe the reset.
func (tracker *Tracker) loadCurrentLocked() (trackerState, error) {
	today := tracker.clock.Now().Format(dateLayoutConstant)

	var state trackerState
	found, loadError := statefile.LoadJSON(tracker.statePath, &state)
	if loadError != nil {
		var corruptError statefile.CorruptStateError
		if !errors.As(loadError, &corruptError) {
			return trackerState{}, loadError
		}
		found = false
	}

	if !found {
		return trackerState{Date: today, Count: 0}, nil
	}

	if state.Date != today {
		state = trackerState{Date: today, Count: 0}
		if saveError := statefile.SaveJSON(tracker.statePath, state); saveError != nil {
			return trackerState{}, saveError
		}
	}

	return state, nil
}
