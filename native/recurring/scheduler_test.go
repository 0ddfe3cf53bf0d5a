package recurring

import (
	"errors"
	"math/big"
	"testing"

	"givechain/core/events"
	"givechain/native/access"
)

type mockState struct {
	intents map[[20]byte][]*Intent
}

func newMockState() *mockState {
	return &mockState{intents: make(map[[20]byte][]*Intent)}
}

func (m *mockState) RecurringIntents(donor [20]byte) []*Intent {
	stored := m.intents[donor]
	out := make([]*Intent, len(stored))
	for i, intent := range stored {
		out[i] = intent.Clone()
	}
	return out
}

func (m *mockState) RecurringIntentAppend(donor [20]byte, intent *Intent) (int, error) {
	if intent == nil {
		return 0, errors.New("nil intent")
	}
	m.intents[donor] = append(m.intents[donor], intent.Clone())
	return len(m.intents[donor]) - 1, nil
}

func (m *mockState) RecurringIntentUpdate(donor [20]byte, index int, intent *Intent) error {
	stored := m.intents[donor]
	if index < 0 || index >= len(stored) {
		return errors.New("index out of range")
	}
	stored[index] = intent.Clone()
	return nil
}

type donateCall struct {
	donor     [20]byte
	projectID uint64
	category  string
	gross     *big.Int
}

type mockLedger struct {
	nextID uint64
	calls  []donateCall
	err    error
}

func (m *mockLedger) Donate(donor [20]byte, projectID uint64, category, message string, gross *big.Int) (uint64, error) {
	m.calls = append(m.calls, donateCall{
		donor:     donor,
		projectID: projectID,
		category:  category,
		gross:     new(big.Int).Set(gross),
	})
	if m.err != nil {
		return 0, m.err
	}
	m.nextID++
	return m.nextID, nil
}

type mockAccess struct {
	operators map[[20]byte]bool
}

func (m *mockAccess) HasRole(role string, addr [20]byte) bool {
	if role != access.RoleOperator {
		return false
	}
	return m.operators[addr]
}

func addr(b byte) [20]byte {
	var a [20]byte
	a[19] = b
	return a
}

var (
	operator = addr(1)
	donor    = addr(2)
)

const baseTime = int64(1_700_000_000)

func newTestScheduler(t *testing.T) (*Scheduler, *mockState, *mockLedger, *events.Recorder, *int64) {
	t.Helper()
	state := newMockState()
	ledger := &mockLedger{}
	recorder := events.NewRecorder()
	now := baseTime
	scheduler := NewScheduler()
	scheduler.SetState(state)
	scheduler.SetLedger(ledger)
	scheduler.SetAccess(&mockAccess{operators: map[[20]byte]bool{operator: true}})
	scheduler.SetEmitter(recorder)
	scheduler.SetNowFunc(func() int64 { return now })
	scheduler.SetMinDonation(big.NewInt(100))
	scheduler.SetMinFrequency(3600)
	scheduler.SetMaxIntents(3)
	return scheduler, state, ledger, recorder, &now
}

func TestSetIntentValidation(t *testing.T) {
	scheduler, _, _, _, _ := newTestScheduler(t)

	if _, err := scheduler.SetIntent(donor, 1, big.NewInt(99), 3600, "reforestation"); !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("expected ErrBelowMinimum, got %v", err)
	}
	if _, err := scheduler.SetIntent(donor, 1, big.NewInt(100), 3599, "reforestation"); !errors.Is(err, ErrFrequencyTooShort) {
		t.Fatalf("expected ErrFrequencyTooShort, got %v", err)
	}

	index, err := scheduler.SetIntent(donor, 1, big.NewInt(100), 3600, "reforestation")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if index != 0 {
		t.Fatalf("expected index 0, got %d", index)
	}
	intents, _ := scheduler.IntentsFor(donor)
	if len(intents) != 1 {
		t.Fatalf("expected one intent, got %d", len(intents))
	}
	got := intents[0]
	if !got.Active || got.NextDue != baseTime+3600 || got.CreatedAt != baseTime {
		t.Fatalf("unexpected intent %+v", got)
	}
}

func TestSetIntentCapCountsInactiveSlots(t *testing.T) {
	scheduler, _, _, _, _ := newTestScheduler(t)
	for i := 0; i < 3; i++ {
		if _, err := scheduler.SetIntent(donor, uint64(i+1), big.NewInt(100), 3600, "reforestation"); err != nil {
			t.Fatalf("set %d: %v", i, err)
		}
	}
	// Cancelled slots still occupy capacity.
	if err := scheduler.CancelIntent(donor, 0); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := scheduler.SetIntent(donor, 9, big.NewInt(100), 3600, "reforestation"); !errors.Is(err, ErrTooManyIntents) {
		t.Fatalf("expected ErrTooManyIntents, got %v", err)
	}
}

func TestCancelIntentIdempotentReemit(t *testing.T) {
	scheduler, _, _, recorder, _ := newTestScheduler(t)
	if _, err := scheduler.SetIntent(donor, 1, big.NewInt(100), 3600, "reforestation"); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := scheduler.CancelIntent(donor, 5); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex, got %v", err)
	}
	if err := scheduler.CancelIntent(donor, 0); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if err := scheduler.CancelIntent(donor, 0); err != nil {
		t.Fatalf("second cancel must succeed: %v", err)
	}
	if got := len(recorder.ByType(EventTypeIntentCancelled)); got != 2 {
		t.Fatalf("expected cancellation event re-emitted, got %d events", got)
	}
	intents, _ := scheduler.IntentsFor(donor)
	if intents[0].Active {
		t.Fatalf("intent still active after cancel")
	}
}

func TestProcessDueRequiresOperator(t *testing.T) {
	scheduler, _, _, _, _ := newTestScheduler(t)
	if _, err := scheduler.ProcessDue(donor, [][20]byte{donor}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestProcessDueReplaysOnceAndAdvances(t *testing.T) {
	scheduler, _, ledger, _, now := newTestScheduler(t)
	const frequency = int64(3600)
	if _, err := scheduler.SetIntent(donor, 1, big.NewInt(500), frequency, "reforestation"); err != nil {
		t.Fatalf("set: %v", err)
	}

	// Not yet due.
	*now = baseTime + frequency - 1
	if processed, err := scheduler.ProcessDue(operator, [][20]byte{donor}); err != nil || processed != 0 {
		t.Fatalf("expected no replays, got %d (%v)", processed, err)
	}

	// Shortly after the due time the intent fires exactly once and the next
	// due time lands on the second period boundary.
	*now = baseTime + frequency + 30
	processed, err := scheduler.ProcessDue(operator, [][20]byte{donor})
	if err != nil || processed != 1 {
		t.Fatalf("expected one replay, got %d (%v)", processed, err)
	}
	if len(ledger.calls) != 1 {
		t.Fatalf("expected one donation, got %d", len(ledger.calls))
	}
	call := ledger.calls[0]
	if call.donor != donor || call.projectID != 1 || call.category != CategoryTag {
		t.Fatalf("unexpected donate call %+v", call)
	}
	if call.gross.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected gross 500, got %s", call.gross)
	}
	intents, _ := scheduler.IntentsFor(donor)
	if intents[0].NextDue != baseTime+2*frequency {
		t.Fatalf("expected next due %d, got %d", baseTime+2*frequency, intents[0].NextDue)
	}

	// A second pass in the same period does nothing.
	if processed, err := scheduler.ProcessDue(operator, [][20]byte{donor}); err != nil || processed != 0 {
		t.Fatalf("expected idempotent pass, got %d (%v)", processed, err)
	}
}

func TestProcessDueCatchesUpMissedPeriods(t *testing.T) {
	scheduler, _, ledger, _, now := newTestScheduler(t)
	const frequency = int64(3600)
	if _, err := scheduler.SetIntent(donor, 1, big.NewInt(500), frequency, "reforestation"); err != nil {
		t.Fatalf("set: %v", err)
	}

	// Three periods elapse unprocessed; one replay fires and the due time
	// skips past every missed boundary.
	*now = baseTime + 3*frequency + 10
	processed, err := scheduler.ProcessDue(operator, [][20]byte{donor})
	if err != nil || processed != 1 {
		t.Fatalf("expected one replay, got %d (%v)", processed, err)
	}
	if len(ledger.calls) != 1 {
		t.Fatalf("expected one donation, got %d", len(ledger.calls))
	}
	intents, _ := scheduler.IntentsFor(donor)
	if intents[0].NextDue != baseTime+4*frequency {
		t.Fatalf("expected next due %d, got %d", baseTime+4*frequency, intents[0].NextDue)
	}
}

func TestProcessDueFailureAdvancesAndContinues(t *testing.T) {
	scheduler, _, ledger, recorder, now := newTestScheduler(t)
	const frequency = int64(3600)
	other := addr(3)
	if _, err := scheduler.SetIntent(donor, 1, big.NewInt(500), frequency, "reforestation"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := scheduler.SetIntent(other, 2, big.NewInt(500), frequency, "wetlands"); err != nil {
		t.Fatalf("set other: %v", err)
	}

	ledger.err = errors.New("project paused")
	*now = baseTime + frequency + 1
	processed, err := scheduler.ProcessDue(operator, [][20]byte{donor, other})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if processed != 0 {
		t.Fatalf("expected zero successes, got %d", processed)
	}
	if len(ledger.calls) != 2 {
		t.Fatalf("both intents must still be attempted, got %d", len(ledger.calls))
	}
	if got := len(recorder.ByType(EventTypeReplayFailed)); got != 2 {
		t.Fatalf("expected 2 failure events, got %d", got)
	}

	// The due time advanced despite the failure, so the failed replay does
	// not repeat within the same period.
	ledger.err = nil
	processed, _ = scheduler.ProcessDue(operator, [][20]byte{donor, other})
	if processed != 0 {
		t.Fatalf("expected no immediate retry, got %d", processed)
	}

	*now = baseTime + 2*frequency + 1
	processed, _ = scheduler.ProcessDue(operator, [][20]byte{donor, other})
	if processed != 2 {
		t.Fatalf("expected both intents to fire next period, got %d", processed)
	}
}

func TestProcessDueSkipsInactiveIntents(t *testing.T) {
	scheduler, _, ledger, _, now := newTestScheduler(t)
	if _, err := scheduler.SetIntent(donor, 1, big.NewInt(500), 3600, "reforestation"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := scheduler.CancelIntent(donor, 0); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	*now = baseTime + 7200
	processed, err := scheduler.ProcessDue(operator, [][20]byte{donor})
	if err != nil || processed != 0 {
		t.Fatalf("expected cancelled intent skipped, got %d (%v)", processed, err)
	}
	if len(ledger.calls) != 0 {
		t.Fatalf("no donation expected, got %d", len(ledger.calls))
	}
}
