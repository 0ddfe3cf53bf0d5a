package project

import "math/big"

// Status represents the lifecycle states supported by the project store.
// Transitions are one-directional: Active projects may complete or cancel,
// terminal states never transition again. Paused projects may resume or
// cancel but cannot complete while paused.
type Status uint8

const (
	StatusActive Status = iota
	StatusCompleted
	StatusCancelled
	StatusPaused
)

// Valid reports whether the status value is within the supported range.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCancelled, StatusPaused:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// String returns the lowercase label used in events.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Project captures a restoration project and its escrowed funding. The
// identifier is assigned once from the store-owned sequence and never reused.
// CurrentAmount only ever grows while the project is active and is capped by
// TargetAmount.
type Project struct {
	ID            uint64
	Creator       [20]byte
	Title         string
	Description   string
	Category      string
	TargetAmount  *big.Int
	CurrentAmount *big.Int
	Status        Status
	Verified      bool
	EndDate       int64
	CreatedAt     int64
	UpdatedAt     int64
	Milestones    []*Milestone
	Fundings      []*FundingRecord
}

// Milestone is an escrow release gate belonging to exactly one project. Its
// identifier is the position in the project's append-only milestone list.
// ReleasedAmount equals TargetAmount exactly when Completed is true.
type Milestone struct {
	ID             uint64
	Description    string
	TargetAmount   *big.Int
	ReleasedAmount *big.Int
	Completed      bool
	CompletedAt    int64
}

// FundingRecord is one net-amount funding application against a project.
// DonorIndex is the per-donor funding ordinal at the time of the record.
type FundingRecord struct {
	Donor      [20]byte
	Amount     *big.Int
	DonorIndex uint64
	At         int64
}

// Clone returns a deep copy of the project so callers can safely mutate the
// copy without affecting the stored instance.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	clone := *p
	clone.TargetAmount = cloneBigInt(p.TargetAmount)
	clone.CurrentAmount = cloneBigInt(p.CurrentAmount)
	if p.Milestones != nil {
		clone.Milestones = make([]*Milestone, len(p.Milestones))
		for i, m := range p.Milestones {
			clone.Milestones[i] = m.Clone()
		}
	}
	if p.Fundings != nil {
		clone.Fundings = make([]*FundingRecord, len(p.Fundings))
		for i, f := range p.Fundings {
			clone.Fundings[i] = f.Clone()
		}
	}
	return &clone
}

// Clone returns a deep copy of the milestone.
func (m *Milestone) Clone() *Milestone {
	if m == nil {
		return nil
	}
	clone := *m
	clone.TargetAmount = cloneBigInt(m.TargetAmount)
	clone.ReleasedAmount = cloneBigInt(m.ReleasedAmount)
	return &clone
}

// Clone returns a deep copy of the funding record.
func (f *FundingRecord) Clone() *FundingRecord {
	if f == nil {
		return nil
	}
	clone := *f
	clone.Amount = cloneBigInt(f.Amount)
	return &clone
}

// Remaining reports how much funding the project can still absorb.
func (p *Project) Remaining() *big.Int {
	if p == nil || p.TargetAmount == nil {
		return big.NewInt(0)
	}
	current := cloneBigInt(p.CurrentAmount)
	remaining := new(big.Int).Sub(p.TargetAmount, current)
	if remaining.Sign() < 0 {
		return big.NewInt(0)
	}
	return remaining
}

// FindMilestone returns the milestone with the supplied identifier or nil.
func (p *Project) FindMilestone(id uint64) *Milestone {
	if p == nil {
		return nil
	}
	if id >= uint64(len(p.Milestones)) {
		return nil
	}
	return p.Milestones[id]
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
