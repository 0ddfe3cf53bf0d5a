package state

import (
	"bytes"
	"math/big"
	"sort"

	"givechain/core/types"
	"givechain/native/donation"
	"givechain/native/project"
	"givechain/native/recurring"
)

// Manager is the in-memory state backend shared by every engine. It owns the
// append-only record collections, the monotonic identifier sequences, the
// account balances and the project escrow vaults. Snapshot/RevertToSnapshot
// give the donation path its all-or-nothing semantics: execution is strictly
// serialized, so a snapshot taken at the start of an operation captures a
// consistent view.
type Manager struct {
	projectSeq   Sequence
	donationSeq  Sequence
	projects     map[uint64]*project.Project
	escrow       map[uint64]*big.Int
	donorFunding map[[20]byte]uint64
	donations    map[uint64]*donation.Donation
	stats        map[[20]byte]*donation.UserStats
	intents      map[[20]byte][]*recurring.Intent
	accounts     map[[20]byte]*types.Account
	snapshots    []*managerState
}

// NewManager returns an empty state manager.
func NewManager() *Manager {
	return &Manager{
		projects:     make(map[uint64]*project.Project),
		escrow:       make(map[uint64]*big.Int),
		donorFunding: make(map[[20]byte]uint64),
		donations:    make(map[uint64]*donation.Donation),
		stats:        make(map[[20]byte]*donation.UserStats),
		intents:      make(map[[20]byte][]*recurring.Intent),
		accounts:     make(map[[20]byte]*types.Account),
	}
}

// --- project store backend ---

// NextProjectID allocates the next project identifier. Identifiers are
// strictly increasing and never reused.
func (m *Manager) NextProjectID() (uint64, error) {
	return m.projectSeq.Next(), nil
}

// ProjectPut stores a deep copy of the project.
func (m *Manager) ProjectPut(p *project.Project) error {
	if p == nil {
		return errNilRecord
	}
	m.projects[p.ID] = p.Clone()
	return nil
}

// ProjectGet returns a deep copy of the stored project.
func (m *Manager) ProjectGet(id uint64) (*project.Project, bool) {
	p, ok := m.projects[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// ProjectIDs returns every stored project identifier in unspecified order.
func (m *Manager) ProjectIDs() []uint64 {
	ids := make([]uint64, 0, len(m.projects))
	for id := range m.projects {
		ids = append(ids, id)
	}
	return ids
}

// ProjectEscrowCredit adds net donation value to the project's escrow vault.
func (m *Manager) ProjectEscrowCredit(id uint64, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errNegativeAmount
	}
	current := m.escrowBalance(id)
	m.escrow[id] = current.Add(current, amount)
	return nil
}

// ProjectEscrowDebit removes value from the project's escrow vault. The
// balance is deliberately allowed to go negative: milestone releases are not
// reconciled against collected funds unless the project engine's strict
// release guard is enabled.
func (m *Manager) ProjectEscrowDebit(id uint64, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errNegativeAmount
	}
	current := m.escrowBalance(id)
	m.escrow[id] = current.Sub(current, amount)
	return nil
}

// ProjectEscrowBalance returns the vault balance for the project.
func (m *Manager) ProjectEscrowBalance(id uint64) *big.Int {
	return m.escrowBalance(id)
}

func (m *Manager) escrowBalance(id uint64) *big.Int {
	if existing, ok := m.escrow[id]; ok && existing != nil {
		return new(big.Int).Set(existing)
	}
	return big.NewInt(0)
}

// BumpDonorFunding increments and returns the donor's funding ordinal.
func (m *Manager) BumpDonorFunding(addr [20]byte) uint64 {
	m.donorFunding[addr]++
	return m.donorFunding[addr]
}

// DonorFundingCount returns the donor's funding ordinal without bumping it.
func (m *Manager) DonorFundingCount(addr [20]byte) uint64 {
	return m.donorFunding[addr]
}

// --- donation ledger backend ---

// NextDonationID allocates the next donation identifier.
func (m *Manager) NextDonationID() (uint64, error) {
	return m.donationSeq.Next(), nil
}

// DonationPut stores a deep copy of the donation.
func (m *Manager) DonationPut(d *donation.Donation) error {
	if d == nil {
		return errNilRecord
	}
	m.donations[d.ID] = d.Clone()
	return nil
}

// DonationGet returns a deep copy of the stored donation.
func (m *Manager) DonationGet(id uint64) (*donation.Donation, bool) {
	d, ok := m.donations[id]
	if !ok {
		return nil, false
	}
	return d.Clone(), true
}

// UserStatsGet returns a deep copy of the donor's aggregate record.
func (m *Manager) UserStatsGet(addr [20]byte) (*donation.UserStats, bool) {
	stats, ok := m.stats[addr]
	if !ok {
		return nil, false
	}
	return stats.Clone(), true
}

// UserStatsPut stores a deep copy of the donor's aggregate record.
func (m *Manager) UserStatsPut(addr [20]byte, stats *donation.UserStats) error {
	if stats == nil {
		return errNilRecord
	}
	m.stats[addr] = stats.Clone()
	return nil
}

// --- recurring scheduler backend ---

// RecurringIntents returns deep copies of the donor's intents in registration
// order, inactive slots included.
func (m *Manager) RecurringIntents(donor [20]byte) []*recurring.Intent {
	stored := m.intents[donor]
	out := make([]*recurring.Intent, len(stored))
	for i, intent := range stored {
		out[i] = intent.Clone()
	}
	return out
}

// RecurringIntentAppend appends the intent to the donor's list and returns
// its stable index.
func (m *Manager) RecurringIntentAppend(donor [20]byte, intent *recurring.Intent) (int, error) {
	if intent == nil {
		return 0, errNilRecord
	}
	m.intents[donor] = append(m.intents[donor], intent.Clone())
	return len(m.intents[donor]) - 1, nil
}

// IntentDonors returns every donor with at least one registered intent,
// sorted bytewise for deterministic iteration.
func (m *Manager) IntentDonors() [][20]byte {
	donors := make([][20]byte, 0, len(m.intents))
	for donor := range m.intents {
		donors = append(donors, donor)
	}
	sort.Slice(donors, func(i, j int) bool {
		return bytes.Compare(donors[i][:], donors[j][:]) < 0
	})
	return donors
}

// RecurringIntentUpdate replaces the intent at the supplied index.
func (m *Manager) RecurringIntentUpdate(donor [20]byte, index int, intent *recurring.Intent) error {
	if intent == nil {
		return errNilRecord
	}
	stored := m.intents[donor]
	if index < 0 || index >= len(stored) {
		return errIndexOutOfRange
	}
	stored[index] = intent.Clone()
	return nil
}

// --- accounts ---

// GetAccount returns a deep copy of the account, creating a zeroed account
// for unknown addresses.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	if acc, ok := m.accounts[addr]; ok {
		return acc.Clone(), nil
	}
	return types.NewAccount(), nil
}

// PutAccount stores a deep copy of the account.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	if account == nil {
		return errNilRecord
	}
	m.accounts[addr] = account.Clone()
	return nil
}

// --- snapshots ---

// Snapshot captures the full manager state and returns a handle for
// RevertToSnapshot. Snapshots nest: an inner revert leaves outer snapshots
// usable.
func (m *Manager) Snapshot() int {
	m.snapshots = append(m.snapshots, m.copyState())
	return len(m.snapshots) - 1
}

// RevertToSnapshot restores the state captured by the handle and discards it
// together with any later snapshots. Unknown handles are ignored.
func (m *Manager) RevertToSnapshot(id int) {
	if id < 0 || id >= len(m.snapshots) {
		return
	}
	m.restoreState(m.snapshots[id])
	m.snapshots = m.snapshots[:id]
}

// DiscardSnapshot drops the handle without reverting, keeping the current
// state. Unknown handles are ignored.
func (m *Manager) DiscardSnapshot(id int) {
	if id < 0 || id >= len(m.snapshots) {
		return
	}
	m.snapshots = m.snapshots[:id]
}
