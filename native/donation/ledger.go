package donation

import (
	"encoding/binary"
	"errors"
	"math/big"
	"strings"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"givechain/core/events"
	"givechain/core/types"
	"givechain/native/rewards"
)

const feeBpsDenominator = 10_000

var (
	errNilState    = errors.New("donation ledger: state not configured")
	errNilProjects = errors.New("donation ledger: project store not configured")
	errNilRewards  = errors.New("donation ledger: reward distributor not configured")
)

type ledgerState interface {
	NextDonationID() (uint64, error)
	DonationPut(*Donation) error
	DonationGet(id uint64) (*Donation, bool)
	UserStatsGet(addr [20]byte) (*UserStats, bool)
	UserStatsPut(addr [20]byte, stats *UserStats) error
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
	Snapshot() int
	RevertToSnapshot(int)
	DiscardSnapshot(int)
}

// stateReverter is implemented by collaborator stores that keep balances
// outside the ledger state. Registered stores commit and roll back together
// with the ledger state, so a failure anywhere in the donation chain undoes
// mints already performed by earlier sub-calls.
type stateReverter interface {
	Snapshot() int
	RevertToSnapshot(int)
	DiscardSnapshot(int)
}

type fundingApplier interface {
	ApplyFunding(projectID uint64, donor [20]byte, amount *big.Int) error
}

type rewardIssuer interface {
	Issue(user [20]byte, net *big.Int, category string, projectID uint64) (*rewards.Distribution, error)
}

type ownerView interface {
	IsOwner(addr [20]byte) bool
}

// Ledger records donation events, aggregates per-donor statistics and splits
// the platform fee from each gross amount. Every donation runs as one atomic
// unit: donation record, stats, fee credit, project funding and reward
// issuance all commit together or roll back together.
type Ledger struct {
	state       ledgerState
	auxStores   []stateReverter
	projects    fundingApplier
	rewards     rewardIssuer
	access      ownerView
	emitter     events.Emitter
	nowFn       func() int64
	feeBps      uint32
	maxFeeBps   uint32
	minDonation *big.Int
	treasury    [20]byte
	inFlight    bool
}

// NewLedger creates a donation ledger with a no-op emitter and a zero fee.
func NewLedger() *Ledger {
	return &Ledger{
		emitter:     events.NoopEmitter{},
		nowFn:       func() int64 { return time.Now().Unix() },
		maxFeeBps:   feeBpsDenominator,
		minDonation: big.NewInt(0),
	}
}

// SetState configures the state backend used by the ledger.
func (l *Ledger) SetState(state ledgerState) { l.state = state }

// AddAuxiliaryStore registers a collaborator store whose writes join the
// donation's atomic unit. The reward token stores keep their balances outside
// the ledger state, so they must snapshot and revert alongside it.
func (l *Ledger) AddAuxiliaryStore(store stateReverter) {
	if store == nil {
		return
	}
	l.auxStores = append(l.auxStores, store)
}

// SetProjectStore wires the project store that receives net funding.
func (l *Ledger) SetProjectStore(store fundingApplier) { l.projects = store }

// SetRewardDistributor wires the reward distributor invoked per donation.
func (l *Ledger) SetRewardDistributor(distributor rewardIssuer) { l.rewards = distributor }

// SetAccess configures the registry consulted for owner-gated setters.
func (l *Ledger) SetAccess(registry ownerView) { l.access = registry }

// SetEmitter configures the event emitter used by the ledger. Passing nil
// resets the emitter to a no-op implementation.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// SetNowFunc overrides the time source used by the ledger. Primarily intended
// for tests to provide deterministic timestamps.
func (l *Ledger) SetNowFunc(now func() int64) {
	if now == nil {
		l.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	l.nowFn = now
}

// SetTreasury configures the account credited with platform fees.
func (l *Ledger) SetTreasury(addr [20]byte) { l.treasury = addr }

// SetMinDonation configures the gross-amount floor.
func (l *Ledger) SetMinDonation(min *big.Int) { l.minDonation = cloneBigInt(min) }

// SetMaxFeeBps configures the upper bound accepted by SetFeeBps.
func (l *Ledger) SetMaxFeeBps(max uint32) {
	if max > feeBpsDenominator {
		max = feeBpsDenominator
	}
	l.maxFeeBps = max
}

// FeeBps returns the fee currently applied to new donations.
func (l *Ledger) FeeBps() uint32 {
	if l == nil {
		return 0
	}
	return l.feeBps
}

// SetFeeBps updates the platform fee. Owner-only; values above the configured
// maximum are rejected. The change affects only subsequent donations.
func (l *Ledger) SetFeeBps(caller [20]byte, bps uint32) error {
	if l == nil {
		return errNilState
	}
	if l.access == nil || !l.access.IsOwner(caller) {
		return ErrUnauthorized
	}
	if bps > l.maxFeeBps {
		return ErrFeeTooHigh
	}
	previous := l.feeBps
	l.feeBps = bps
	l.emit(NewFeeUpdatedEvent(previous, bps))
	return nil
}

// FeeFor returns the platform fee for a gross amount using integer floor
// division; rounding favours the platform.
func (l *Ledger) FeeFor(gross *big.Int) *big.Int {
	if l == nil || gross == nil || gross.Sign() <= 0 || l.feeBps == 0 {
		return big.NewInt(0)
	}
	fee := new(big.Int).Mul(gross, new(big.Int).SetUint64(uint64(l.feeBps)))
	return fee.Quo(fee, big.NewInt(feeBpsDenominator))
}

func (l *Ledger) now() int64 {
	if l == nil || l.nowFn == nil {
		return time.Now().Unix()
	}
	return l.nowFn()
}

func (l *Ledger) emit(evt events.Event) {
	if l == nil || l.emitter == nil || evt == nil {
		return
	}
	l.emitter.Emit(evt)
}

func (l *Ledger) ready() error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if l.projects == nil {
		return errNilProjects
	}
	if l.rewards == nil {
		return errNilRewards
	}
	return nil
}

// Donate records a donation against the project. The gross amount is split
// into the platform fee and the net value; the net alone reaches the project
// store and the reward distributor. The whole chain commits or rolls back as
// one unit, and re-entrant invocation from a collaborator callback is
// rejected for the duration of the call.
func (l *Ledger) Donate(donor [20]byte, projectID uint64, category, message string, gross *big.Int) (uint64, error) {
	if err := l.ready(); err != nil {
		return 0, err
	}
	if l.inFlight {
		return 0, ErrReentrantCall
	}
	l.inFlight = true
	defer func() { l.inFlight = false }()

	amount := cloneBigInt(gross)
	if amount.Sign() <= 0 || amount.Cmp(l.minDonation) < 0 {
		return 0, ErrBelowMinimum
	}

	snapshot := l.state.Snapshot()
	marks := make([]int, len(l.auxStores))
	for i, store := range l.auxStores {
		marks[i] = store.Snapshot()
	}
	id, err := l.donate(donor, projectID, category, message, amount)
	if err != nil {
		for i := len(l.auxStores) - 1; i >= 0; i-- {
			l.auxStores[i].RevertToSnapshot(marks[i])
		}
		l.state.RevertToSnapshot(snapshot)
		return 0, err
	}
	for i := len(l.auxStores) - 1; i >= 0; i-- {
		l.auxStores[i].DiscardSnapshot(marks[i])
	}
	l.state.DiscardSnapshot(snapshot)
	return id, nil
}

func (l *Ledger) donate(donor [20]byte, projectID uint64, category, message string, gross *big.Int) (uint64, error) {
	fee := l.FeeFor(gross)
	net := new(big.Int).Sub(gross, fee)

	id, err := l.state.NextDonationID()
	if err != nil {
		return 0, err
	}
	now := l.now()
	d := &Donation{
		ID:             id,
		Donor:          donor,
		ProjectID:      projectID,
		NetAmount:      net,
		Category:       strings.TrimSpace(category),
		Message:        strings.TrimSpace(message),
		Timestamp:      now,
		RewardsClaimed: true,
		Receipt:        receiptHash(donor, projectID, id, now),
	}
	if err := l.state.DonationPut(d); err != nil {
		return 0, err
	}

	if fee.Sign() > 0 {
		treasuryAcc, err := l.state.GetAccount(l.treasury)
		if err != nil {
			return 0, err
		}
		treasuryAcc.Balance = new(big.Int).Add(treasuryAcc.Balance, fee)
		if err := l.state.PutAccount(l.treasury, treasuryAcc); err != nil {
			return 0, err
		}
	}

	if err := l.projects.ApplyFunding(projectID, donor, net); err != nil {
		return 0, err
	}

	dist, err := l.rewards.Issue(donor, net, d.Category, projectID)
	if err != nil {
		return 0, err
	}

	stats, ok := l.state.UserStatsGet(donor)
	if !ok || stats == nil {
		stats = NewUserStats()
	}
	stats.TotalDonations++
	stats.TotalAmount = new(big.Int).Add(stats.TotalAmount, net)
	stats.LastDonationAt = now
	if dist != nil {
		stats.RewardCredits = new(big.Int).Add(stats.RewardCredits, cloneBigInt(dist.Credits))
		if dist.CollectibleID != 0 {
			stats.CollectiblesEarned++
		}
	}
	if err := l.state.UserStatsPut(donor, stats); err != nil {
		return 0, err
	}

	l.emit(NewRecordedEvent(d, fee.String()))
	return id, nil
}

// GetDonation returns a copy of the stored donation.
func (l *Ledger) GetDonation(id uint64) (*Donation, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	d, ok := l.state.DonationGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	return d.Clone(), nil
}

// GetUserStats returns a copy of the donor's aggregate record. Donors without
// donations get a zeroed record.
func (l *Ledger) GetUserStats(addr [20]byte) (*UserStats, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	stats, ok := l.state.UserStatsGet(addr)
	if !ok || stats == nil {
		return NewUserStats(), nil
	}
	return stats.Clone(), nil
}

func receiptHash(donor [20]byte, projectID, donationID uint64, timestamp int64) [32]byte {
	var buf [24]byte
	binary.BigEndian.PutUint64(buf[0:8], projectID)
	binary.BigEndian.PutUint64(buf[8:16], donationID)
	binary.BigEndian.PutUint64(buf[16:24], uint64(timestamp))
	return ethcrypto.Keccak256Hash(donor[:], buf[:])
}
