package rewards

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"givechain/core/events"
)

// ReasonDonation tags credit mints triggered by the donation path.
const ReasonDonation = "donation_reward"

// CreditMinter is the fungible reward-token collaborator. Mint fails when the
// caller lacks the minter role or the amount would exceed the max-supply
// ceiling.
type CreditMinter interface {
	Mint(caller [20]byte, to [20]byte, amount *big.Int, reason string) error
	Burn(caller [20]byte, from [20]byte, amount *big.Int, reason string) error
}

// CollectibleMinter is the collectible-token collaborator.
type CollectibleMinter interface {
	MintCollectible(caller [20]byte, owner [20]byte, attributes map[string]string, uri string) (uint64, error)
}

// Distribution summarises the rewards issued for a single donation. A zero
// credit amount is a legitimate outcome for small donations; CollectibleID is
// zero when the donation did not qualify for a collectible.
type Distribution struct {
	Credits       *big.Int
	CollectibleID uint64
	Reason        string
}

// Distributor converts net donation amounts into reward-credit issuance and
// collectible eligibility, delegating the actual mints to the two external
// token collaborators.
type Distributor struct {
	emitter              events.Emitter
	nowFn                func() int64
	credits              CreditMinter
	collectibles         CollectibleMinter
	moduleAddr           [20]byte
	creditRate           *big.Int
	creditUnit           *big.Int
	collectibleThreshold *big.Int
	metadataBaseURI      string
}

// NewDistributor creates a distributor with a no-op emitter and a 1:1 credit
// rate. Callers wire the collaborators and rates before use.
func NewDistributor() *Distributor {
	return &Distributor{
		emitter:              events.NoopEmitter{},
		nowFn:                func() int64 { return time.Now().Unix() },
		creditRate:           big.NewInt(1),
		creditUnit:           big.NewInt(1),
		collectibleThreshold: big.NewInt(0),
	}
}

// SetEmitter configures the event emitter used by the distributor. Passing
// nil resets the emitter to a no-op implementation.
func (d *Distributor) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		d.emitter = events.NoopEmitter{}
		return
	}
	d.emitter = emitter
}

// SetNowFunc overrides the time source. Primarily intended for tests.
func (d *Distributor) SetNowFunc(now func() int64) {
	if now == nil {
		d.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	d.nowFn = now
}

// SetCreditMinter wires the fungible reward-token collaborator.
func (d *Distributor) SetCreditMinter(minter CreditMinter) { d.credits = minter }

// SetCollectibleMinter wires the collectible-token collaborator.
func (d *Distributor) SetCollectibleMinter(minter CollectibleMinter) { d.collectibles = minter }

// SetModuleAddress configures the address this distributor mints as. The
// address must hold the minter role on both collaborators.
func (d *Distributor) SetModuleAddress(addr [20]byte) { d.moduleAddr = addr }

// SetCreditRate configures the credits-per-unit issuance ratio. Credits are
// computed as net*rate/unit with integer floor division.
func (d *Distributor) SetCreditRate(rate, unit *big.Int) {
	d.creditRate = cloneBigInt(rate)
	if unit == nil || unit.Sign() <= 0 {
		d.creditUnit = big.NewInt(1)
		return
	}
	d.creditUnit = new(big.Int).Set(unit)
}

// SetCollectibleThreshold configures the minimum net donation that earns a
// collectible. A zero threshold disables collectible issuance.
func (d *Distributor) SetCollectibleThreshold(threshold *big.Int) {
	d.collectibleThreshold = cloneBigInt(threshold)
}

// SetMetadataBaseURI configures the URI prefix stamped on minted
// collectibles.
func (d *Distributor) SetMetadataBaseURI(base string) {
	d.metadataBaseURI = strings.TrimSpace(base)
}

// CreditsFor returns the credit amount the supplied net donation would earn
// without minting anything. Useful for diagnostics and tests.
func (d *Distributor) CreditsFor(net *big.Int) *big.Int {
	if d == nil || net == nil || net.Sign() <= 0 {
		return big.NewInt(0)
	}
	if d.creditRate == nil || d.creditRate.Sign() <= 0 {
		return big.NewInt(0)
	}
	credits := new(big.Int).Mul(net, d.creditRate)
	return credits.Quo(credits, d.creditUnit)
}

// Issue computes and mints the rewards for one donation. The credit mint is
// only invoked for a nonzero amount; a zero computation is a valid outcome
// and still produces a distribution event. Exactly one collectible is minted
// when the net amount meets the threshold.
func (d *Distributor) Issue(user [20]byte, net *big.Int, category string, projectID uint64) (*Distribution, error) {
	if d == nil {
		return nil, ErrMinterNotSet
	}
	amount := cloneBigInt(net)
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	credits := d.CreditsFor(amount)
	if credits.Sign() > 0 {
		if d.credits == nil {
			return nil, ErrMinterNotSet
		}
		if err := d.credits.Mint(d.moduleAddr, user, credits, ReasonDonation); err != nil {
			return nil, err
		}
	}
	var collectibleID uint64
	if d.collectibleThreshold != nil && d.collectibleThreshold.Sign() > 0 && amount.Cmp(d.collectibleThreshold) >= 0 {
		if d.collectibles == nil {
			return nil, ErrCollectiblesNotSet
		}
		attrs := map[string]string{
			"category":  strings.TrimSpace(category),
			"projectId": strconv.FormatUint(projectID, 10),
			"netAmount": amount.String(),
		}
		uri := d.metadataBaseURI
		if uri != "" {
			uri = fmt.Sprintf("%s/%s", uri, strings.TrimSpace(category))
		}
		id, err := d.collectibles.MintCollectible(d.moduleAddr, user, attrs, uri)
		if err != nil {
			return nil, err
		}
		collectibleID = id
	}
	dist := &Distribution{
		Credits:       credits,
		CollectibleID: collectibleID,
		Reason:        ReasonDonation,
	}
	d.emit(NewDistributedEvent(user, projectID, dist))
	return dist, nil
}

func (d *Distributor) emit(evt events.Event) {
	if d == nil || d.emitter == nil || evt == nil {
		return
	}
	d.emitter.Emit(evt)
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
