package project

import (
	"errors"
	"math/big"
	"sort"
	"strings"
	"time"

	"givechain/core/events"
	"givechain/core/types"
	"givechain/native/access"
)

var (
	errNilState  = errors.New("project engine: state not configured")
	errNilAccess = errors.New("project engine: access registry not configured")
)

type engineState interface {
	NextProjectID() (uint64, error)
	ProjectPut(*Project) error
	ProjectGet(id uint64) (*Project, bool)
	ProjectIDs() []uint64
	ProjectEscrowCredit(id uint64, amount *big.Int) error
	ProjectEscrowDebit(id uint64, amount *big.Int) error
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
	BumpDonorFunding(addr [20]byte) uint64
}

type accessView interface {
	HasRole(role string, addr [20]byte) bool
}

// Engine owns every Project and Milestone mutation. Funding amounts it
// receives are always net of the platform fee; the gross value never reaches
// this store.
type Engine struct {
	state         engineState
	access        accessView
	emitter       events.Emitter
	nowFn         func() int64
	minTarget     *big.Int
	maxTarget     *big.Int
	categories    map[string]struct{}
	strictRelease bool
}

// NewEngine creates a project engine with a no-op emitter and open target
// bounds. Callers configure state, access and bounds before use.
func NewEngine() *Engine {
	return &Engine{
		emitter:    events.NoopEmitter{},
		nowFn:      func() int64 { return time.Now().Unix() },
		minTarget:  big.NewInt(0),
		maxTarget:  big.NewInt(0),
		categories: make(map[string]struct{}),
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetAccess configures the role registry consulted for gated operations.
func (e *Engine) SetAccess(registry accessView) { e.access = registry }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetTargetBounds configures the allowed [min, max] range for project funding
// targets. A nil or zero max disables the upper bound.
func (e *Engine) SetTargetBounds(min, max *big.Int) {
	e.minTarget = cloneBigInt(min)
	e.maxTarget = cloneBigInt(max)
}

// SetCategories replaces the registered category set.
func (e *Engine) SetCategories(categories []string) {
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		normalized := normalizeCategory(c)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	e.categories = set
}

// SetStrictRelease toggles the guard that refuses milestone releases beyond
// the funds actually collected. The guard defaults to off to keep historical
// release behaviour; enabling it changes externally observable behaviour.
func (e *Engine) SetStrictRelease(strict bool) { e.strictRelease = strict }

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.access == nil {
		return errNilAccess
	}
	return nil
}

func (e *Engine) isVerifier(addr [20]byte) bool {
	if e == nil || e.access == nil {
		return false
	}
	return e.access.HasRole(access.RoleVerifier, addr)
}

func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// CreateProject validates and persists a new project. The identifier comes
// from the store-owned sequence; the project starts active and unverified
// with no collected funds.
func (e *Engine) CreateProject(creator [20]byte, title, description, category string, target *big.Int, endDate int64) (*Project, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	normalized := normalizeCategory(category)
	if _, ok := e.categories[normalized]; !ok {
		return nil, ErrInvalidCategory
	}
	amount := cloneBigInt(target)
	if amount.Sign() <= 0 || amount.Cmp(e.minTarget) < 0 {
		return nil, ErrInvalidTarget
	}
	if e.maxTarget != nil && e.maxTarget.Sign() > 0 && amount.Cmp(e.maxTarget) > 0 {
		return nil, ErrInvalidTarget
	}
	now := e.now()
	if endDate <= now {
		return nil, ErrInvalidEndDate
	}
	id, err := e.state.NextProjectID()
	if err != nil {
		return nil, err
	}
	p := &Project{
		ID:            id,
		Creator:       creator,
		Title:         strings.TrimSpace(title),
		Description:   strings.TrimSpace(description),
		Category:      normalized,
		TargetAmount:  amount,
		CurrentAmount: big.NewInt(0),
		Status:        StatusActive,
		EndDate:       endDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := e.state.ProjectPut(p); err != nil {
		return nil, err
	}
	e.emit(NewCreatedEvent(p))
	return p.Clone(), nil
}

// ApplyFunding credits a net donation amount against the project and its
// escrow vault. The caller (the donation ledger) has already deducted the
// platform fee; this store never sees the gross value.
func (e *Engine) ApplyFunding(projectID uint64, donor [20]byte, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return ErrInvalidAmount
	}
	p, ok := e.state.ProjectGet(projectID)
	if !ok {
		return ErrNotFound
	}
	if p.Status != StatusActive {
		return ErrNotActive
	}
	next := new(big.Int).Add(cloneBigInt(p.CurrentAmount), amt)
	if next.Cmp(p.TargetAmount) > 0 {
		return ErrExceedsTarget
	}
	if err := e.state.ProjectEscrowCredit(projectID, amt); err != nil {
		return err
	}
	now := e.now()
	p.CurrentAmount = next
	p.UpdatedAt = now
	p.Fundings = append(p.Fundings, &FundingRecord{
		Donor:      donor,
		Amount:     amt,
		DonorIndex: e.state.BumpDonorFunding(donor),
		At:         now,
	})
	if err := e.state.ProjectPut(p); err != nil {
		return err
	}
	e.emit(NewFundedEvent(p, donor, amt.String()))
	return nil
}

// AddMilestone appends a new escrow release gate to the project. Only the
// creator or a registered verifier may add milestones. The milestone target is
// bounded by the project target but deliberately not by the remaining
// uncommitted target.
func (e *Engine) AddMilestone(caller [20]byte, projectID uint64, description string, target *big.Int) (*Milestone, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	p, ok := e.state.ProjectGet(projectID)
	if !ok {
		return nil, ErrNotFound
	}
	if caller != p.Creator && !e.isVerifier(caller) {
		return nil, ErrUnauthorized
	}
	amount := cloneBigInt(target)
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if amount.Cmp(p.TargetAmount) > 0 {
		return nil, ErrExceedsProjectTarget
	}
	m := &Milestone{
		ID:             uint64(len(p.Milestones)),
		Description:    strings.TrimSpace(description),
		TargetAmount:   amount,
		ReleasedAmount: big.NewInt(0),
	}
	p.Milestones = append(p.Milestones, m)
	p.UpdatedAt = e.now()
	if err := e.state.ProjectPut(p); err != nil {
		return nil, err
	}
	e.emit(NewMilestoneAddedEvent(p, m))
	return m.Clone(), nil
}

// CompleteMilestone marks the milestone released and transfers its target
// amount out of the project escrow to the creator. Only registered verifiers
// may complete milestones. The release is not reconciled against the funds
// actually collected unless strict release is enabled; see SetStrictRelease.
func (e *Engine) CompleteMilestone(caller [20]byte, projectID, milestoneID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if !e.isVerifier(caller) {
		return ErrUnauthorized
	}
	p, ok := e.state.ProjectGet(projectID)
	if !ok {
		return ErrNotFound
	}
	m := p.FindMilestone(milestoneID)
	if m == nil {
		return ErrMilestoneNotFound
	}
	if m.Completed {
		return ErrAlreadyCompleted
	}
	amount := cloneBigInt(m.TargetAmount)
	if e.strictRelease {
		released := big.NewInt(0)
		for _, prior := range p.Milestones {
			if prior != nil && prior.Completed {
				released.Add(released, cloneBigInt(prior.ReleasedAmount))
			}
		}
		available := new(big.Int).Sub(cloneBigInt(p.CurrentAmount), released)
		if amount.Cmp(available) > 0 {
			return ErrEscrowShortfall
		}
	}
	if err := e.state.ProjectEscrowDebit(projectID, amount); err != nil {
		return err
	}
	creatorAcc, err := e.state.GetAccount(p.Creator)
	if err != nil {
		return err
	}
	creatorAcc.Balance = new(big.Int).Add(creatorAcc.Balance, amount)
	if err := e.state.PutAccount(p.Creator, creatorAcc); err != nil {
		return err
	}
	now := e.now()
	m.Completed = true
	m.CompletedAt = now
	m.ReleasedAmount = amount
	p.UpdatedAt = now
	if err := e.state.ProjectPut(p); err != nil {
		return err
	}
	e.emit(NewMilestoneCompletedEvent(p, m))
	return nil
}

// VerifyProject marks the project verified. Only registered verifiers may
// verify, and only once.
func (e *Engine) VerifyProject(caller [20]byte, projectID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if !e.isVerifier(caller) {
		return ErrUnauthorized
	}
	p, ok := e.state.ProjectGet(projectID)
	if !ok {
		return ErrNotFound
	}
	if p.Verified {
		return ErrAlreadyVerified
	}
	p.Verified = true
	p.UpdatedAt = e.now()
	if err := e.state.ProjectPut(p); err != nil {
		return err
	}
	e.emit(NewVerifiedEvent(p, caller))
	return nil
}

// CompleteProject transitions the project into its terminal completed state
// once the funding target has been reached. The creator or a verifier may
// complete.
func (e *Engine) CompleteProject(caller [20]byte, projectID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	p, ok := e.state.ProjectGet(projectID)
	if !ok {
		return ErrNotFound
	}
	if caller != p.Creator && !e.isVerifier(caller) {
		return ErrUnauthorized
	}
	if p.Status != StatusActive {
		return ErrNotActive
	}
	if cloneBigInt(p.CurrentAmount).Cmp(p.TargetAmount) < 0 {
		return ErrTargetNotReached
	}
	p.Status = StatusCompleted
	p.UpdatedAt = e.now()
	if err := e.state.ProjectPut(p); err != nil {
		return err
	}
	e.emit(NewStatusEvent(EventTypeProjectCompleted, p))
	return nil
}

// CancelProject transitions the project into its terminal cancelled state
// from any non-terminal status. The creator or a verifier may cancel.
func (e *Engine) CancelProject(caller [20]byte, projectID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	p, ok := e.state.ProjectGet(projectID)
	if !ok {
		return ErrNotFound
	}
	if caller != p.Creator && !e.isVerifier(caller) {
		return ErrUnauthorized
	}
	if p.Status.Terminal() {
		return ErrTerminalStatus
	}
	p.Status = StatusCancelled
	p.UpdatedAt = e.now()
	if err := e.state.ProjectPut(p); err != nil {
		return err
	}
	e.emit(NewStatusEvent(EventTypeProjectCancelled, p))
	return nil
}

// PauseProject suspends donations to an active project. The creator or a
// verifier may pause.
func (e *Engine) PauseProject(caller [20]byte, projectID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	p, ok := e.state.ProjectGet(projectID)
	if !ok {
		return ErrNotFound
	}
	if caller != p.Creator && !e.isVerifier(caller) {
		return ErrUnauthorized
	}
	if p.Status != StatusActive {
		return ErrNotActive
	}
	p.Status = StatusPaused
	p.UpdatedAt = e.now()
	if err := e.state.ProjectPut(p); err != nil {
		return err
	}
	e.emit(NewStatusEvent(EventTypeProjectPaused, p))
	return nil
}

// ResumeProject reactivates a paused project.
func (e *Engine) ResumeProject(caller [20]byte, projectID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	p, ok := e.state.ProjectGet(projectID)
	if !ok {
		return ErrNotFound
	}
	if caller != p.Creator && !e.isVerifier(caller) {
		return ErrUnauthorized
	}
	if p.Status != StatusPaused {
		return ErrNotPaused
	}
	p.Status = StatusActive
	p.UpdatedAt = e.now()
	if err := e.state.ProjectPut(p); err != nil {
		return err
	}
	e.emit(NewStatusEvent(EventTypeProjectResumed, p))
	return nil
}

// GetProject returns a copy of the stored project.
func (e *Engine) GetProject(projectID uint64) (*Project, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	p, ok := e.state.ProjectGet(projectID)
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

// GetMilestone returns a copy of the stored milestone.
func (e *Engine) GetMilestone(projectID, milestoneID uint64) (*Milestone, error) {
	p, err := e.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	m := p.FindMilestone(milestoneID)
	if m == nil {
		return nil, ErrMilestoneNotFound
	}
	return m.Clone(), nil
}

// ProjectsByCategory returns every project in the category, ordered by
// ascending identifier. The listing is filtered on demand rather than bounded
// by a fixed scratch array.
func (e *Engine) ProjectsByCategory(category string) ([]*Project, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	normalized := normalizeCategory(category)
	if _, ok := e.categories[normalized]; !ok {
		return nil, ErrInvalidCategory
	}
	ids := e.state.ProjectIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var out []*Project
	for _, id := range ids {
		p, ok := e.state.ProjectGet(id)
		if !ok || p == nil {
			continue
		}
		if p.Category == normalized {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}
