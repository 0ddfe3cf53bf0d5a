package recurring

import (
	"errors"
	"math/big"
	"strings"
	"time"

	"givechain/core/events"
	"givechain/native/access"
)

var (
	errNilState  = errors.New("recurring scheduler: state not configured")
	errNilLedger = errors.New("recurring scheduler: donation ledger not configured")
	errNilAccess = errors.New("recurring scheduler: access registry not configured")
)

type schedulerState interface {
	RecurringIntents(donor [20]byte) []*Intent
	RecurringIntentAppend(donor [20]byte, intent *Intent) (int, error)
	RecurringIntentUpdate(donor [20]byte, index int, intent *Intent) error
}

type donationSink interface {
	Donate(donor [20]byte, projectID uint64, category, message string, gross *big.Int) (uint64, error)
}

type accessView interface {
	HasRole(role string, addr [20]byte) bool
}

// Scheduler stores per-donor recurring-donation intents and replays them at
// or after their due time through the shared donation path. The scheduler
// never duplicates accounting logic: every replay is a regular donation.
type Scheduler struct {
	state        schedulerState
	ledger       donationSink
	access       accessView
	emitter      events.Emitter
	nowFn        func() int64
	minDonation  *big.Int
	minFrequency int64
	maxIntents   int
}

// NewScheduler creates a scheduler with a no-op emitter. Callers configure
// state, ledger, access and limits before use.
func NewScheduler() *Scheduler {
	return &Scheduler{
		emitter:     events.NoopEmitter{},
		nowFn:       func() int64 { return time.Now().Unix() },
		minDonation: big.NewInt(0),
	}
}

// SetState configures the state backend used by the scheduler.
func (s *Scheduler) SetState(state schedulerState) { s.state = state }

// SetLedger wires the donation ledger used to replay due intents.
func (s *Scheduler) SetLedger(ledger donationSink) { s.ledger = ledger }

// SetAccess configures the role registry consulted for the operator gate.
func (s *Scheduler) SetAccess(registry accessView) { s.access = registry }

// SetEmitter configures the event emitter used by the scheduler. Passing nil
// resets the emitter to a no-op implementation.
func (s *Scheduler) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		s.emitter = events.NoopEmitter{}
		return
	}
	s.emitter = emitter
}

// SetNowFunc overrides the time source used by the scheduler. Primarily
// intended for tests to provide deterministic timestamps.
func (s *Scheduler) SetNowFunc(now func() int64) {
	if now == nil {
		s.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	s.nowFn = now
}

// SetMinDonation configures the gross-amount floor shared with direct
// donations.
func (s *Scheduler) SetMinDonation(min *big.Int) { s.minDonation = cloneBigInt(min) }

// SetMinFrequency configures the minimum interval in seconds between
// replays of one intent.
func (s *Scheduler) SetMinFrequency(seconds int64) { s.minFrequency = seconds }

// SetMaxIntents configures the per-donor intent cap. Inactive intents count
// against the cap because the list is never compacted.
func (s *Scheduler) SetMaxIntents(max int) { s.maxIntents = max }

func (s *Scheduler) now() int64 {
	if s == nil || s.nowFn == nil {
		return time.Now().Unix()
	}
	return s.nowFn()
}

func (s *Scheduler) emit(evt events.Event) {
	if s == nil || s.emitter == nil || evt == nil {
		return
	}
	s.emitter.Emit(evt)
}

// SetIntent registers a new recurring intent for the donor. The intent is
// appended to the donor's list; its index stays stable forever.
func (s *Scheduler) SetIntent(donor [20]byte, projectID uint64, gross *big.Int, frequency int64, category string) (int, error) {
	if s == nil || s.state == nil {
		return 0, errNilState
	}
	amount := cloneBigInt(gross)
	if amount.Sign() <= 0 || amount.Cmp(s.minDonation) < 0 {
		return 0, ErrBelowMinimum
	}
	if frequency < s.minFrequency || frequency <= 0 {
		return 0, ErrFrequencyTooShort
	}
	if s.maxIntents > 0 && len(s.state.RecurringIntents(donor)) >= s.maxIntents {
		return 0, ErrTooManyIntents
	}
	now := s.now()
	intent := &Intent{
		ProjectID: projectID,
		Amount:    amount,
		Frequency: frequency,
		NextDue:   now + frequency,
		Category:  strings.TrimSpace(category),
		Active:    true,
		CreatedAt: now,
	}
	index, err := s.state.RecurringIntentAppend(donor, intent)
	if err != nil {
		return 0, err
	}
	s.emit(NewIntentSetEvent(donor, index, intent))
	return index, nil
}

// CancelIntent deactivates the intent at the supplied index. The slot is kept
// so later indexes stay valid. Cancelling an already-inactive intent is not
// an error; it re-emits the cancellation event without changing state so
// downstream consumers can treat the call as idempotent.
func (s *Scheduler) CancelIntent(donor [20]byte, index int) error {
	if s == nil || s.state == nil {
		return errNilState
	}
	intents := s.state.RecurringIntents(donor)
	if index < 0 || index >= len(intents) {
		return ErrInvalidIndex
	}
	intent := intents[index]
	if intent.Active {
		intent.Active = false
		if err := s.state.RecurringIntentUpdate(donor, index, intent); err != nil {
			return err
		}
	}
	s.emit(NewIntentCancelledEvent(donor, index))
	return nil
}

// IntentsFor returns copies of the donor's intents, active and inactive, in
// registration order.
func (s *Scheduler) IntentsFor(donor [20]byte) ([]*Intent, error) {
	if s == nil || s.state == nil {
		return nil, errNilState
	}
	intents := s.state.RecurringIntents(donor)
	out := make([]*Intent, len(intents))
	for i, intent := range intents {
		out[i] = intent.Clone()
	}
	return out, nil
}

// ProcessDue replays every due intent for the supplied donors through the
// shared donation path. Only operators may drive the batch. The due time is
// advanced and persisted before the donation executes, so a failing replay
// does not leave an immediately-repeatable due state; the donation path rolls
// its own effects back and the loop continues with the next intent. Donors
// with no due intents are silently skipped. Returns the number of donations
// produced.
func (s *Scheduler) ProcessDue(caller [20]byte, donors [][20]byte) (int, error) {
	if s == nil || s.state == nil {
		return 0, errNilState
	}
	if s.ledger == nil {
		return 0, errNilLedger
	}
	if s.access == nil {
		return 0, errNilAccess
	}
	if !s.access.HasRole(access.RoleOperator, caller) {
		return 0, ErrUnauthorized
	}
	processed := 0
	for _, donor := range donors {
		intents := s.state.RecurringIntents(donor)
		for index, intent := range intents {
			if intent == nil || !intent.Active {
				continue
			}
			now := s.now()
			if now < intent.NextDue {
				continue
			}
			for intent.NextDue <= now {
				intent.NextDue += intent.Frequency
			}
			if err := s.state.RecurringIntentUpdate(donor, index, intent); err != nil {
				return processed, err
			}
			donationID, err := s.ledger.Donate(donor, intent.ProjectID, CategoryTag, "", intent.Amount)
			if err != nil {
				s.emit(NewReplayFailedEvent(donor, index, err.Error()))
				continue
			}
			processed++
			s.emit(NewReplayedEvent(donor, index, donationID))
		}
	}
	return processed, nil
}
