package token

import (
	"math/big"
	"strings"

	"givechain/core/events"
	"givechain/native/access"
)

type accessView interface {
	HasRole(role string, addr [20]byte) bool
}

// Token is the fungible reward-credit ledger. Minting is gated by the minter
// allow-list and bounded by a fixed max-supply ceiling.
type Token struct {
	name        string
	symbol      string
	access      accessView
	emitter     events.Emitter
	maxSupply   *big.Int
	totalSupply *big.Int
	balances    map[[20]byte]*big.Int
	snapshots   []tokenSnapshot
}

type tokenSnapshot struct {
	totalSupply *big.Int
	balances    map[[20]byte]*big.Int
}

// New creates a token with the supplied max-supply ceiling. A nil or zero
// ceiling disables the supply bound.
func New(name, symbol string, maxSupply *big.Int) *Token {
	return &Token{
		name:        strings.TrimSpace(name),
		symbol:      strings.ToUpper(strings.TrimSpace(symbol)),
		emitter:     events.NoopEmitter{},
		maxSupply:   cloneBigInt(maxSupply),
		totalSupply: big.NewInt(0),
		balances:    make(map[[20]byte]*big.Int),
	}
}

// SetAccess configures the role registry consulted for minter checks.
func (t *Token) SetAccess(registry accessView) { t.access = registry }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op
// implementation.
func (t *Token) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		t.emitter = events.NoopEmitter{}
		return
	}
	t.emitter = emitter
}

// Name returns the token name.
func (t *Token) Name() string { return t.name }

// Symbol returns the token symbol.
func (t *Token) Symbol() string { return t.symbol }

// TotalSupply returns the current circulating supply.
func (t *Token) TotalSupply() *big.Int {
	if t == nil {
		return big.NewInt(0)
	}
	return cloneBigInt(t.totalSupply)
}

// BalanceOf returns the balance held by the address.
func (t *Token) BalanceOf(addr [20]byte) *big.Int {
	if t == nil {
		return big.NewInt(0)
	}
	return cloneBigInt(t.balances[addr])
}

// Mint issues new credits to the recipient. The caller must hold the minter
// role and the resulting supply must stay within the ceiling. A zero amount
// is a valid no-op.
func (t *Token) Mint(caller [20]byte, to [20]byte, amount *big.Int, reason string) error {
	if t == nil {
		return ErrNotConfigured
	}
	if t.access == nil || !t.access.HasRole(access.RoleMinter, caller) {
		return ErrUnauthorized
	}
	amt := cloneBigInt(amount)
	if amt.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amt.Sign() == 0 {
		return nil
	}
	next := new(big.Int).Add(t.totalSupply, amt)
	if t.maxSupply != nil && t.maxSupply.Sign() > 0 && next.Cmp(t.maxSupply) > 0 {
		return ErrSupplyCeiling
	}
	t.totalSupply = next
	t.balances[to] = new(big.Int).Add(cloneBigInt(t.balances[to]), amt)
	t.emit(NewMintedEvent(t.symbol, to, amt, reason))
	return nil
}

// Burn destroys credits held by the supplied address. The caller must hold
// the minter role.
func (t *Token) Burn(caller [20]byte, from [20]byte, amount *big.Int, reason string) error {
	if t == nil {
		return ErrNotConfigured
	}
	if t.access == nil || !t.access.HasRole(access.RoleMinter, caller) {
		return ErrUnauthorized
	}
	amt := cloneBigInt(amount)
	if amt.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amt.Sign() == 0 {
		return nil
	}
	balance := cloneBigInt(t.balances[from])
	if balance.Cmp(amt) < 0 {
		return ErrInsufficientBalance
	}
	t.balances[from] = balance.Sub(balance, amt)
	t.totalSupply = new(big.Int).Sub(t.totalSupply, amt)
	t.emit(NewBurnedEvent(t.symbol, from, amt, reason))
	return nil
}

// Snapshot captures the supply and balance maps and returns a handle for
// RevertToSnapshot. Snapshots nest: an inner revert leaves outer snapshots
// usable. The donation ledger snapshots the token alongside its own state so
// a failing donation rolls minted credits back with everything else.
func (t *Token) Snapshot() int {
	snap := tokenSnapshot{
		totalSupply: cloneBigInt(t.totalSupply),
		balances:    make(map[[20]byte]*big.Int, len(t.balances)),
	}
	for addr, balance := range t.balances {
		snap.balances[addr] = cloneBigInt(balance)
	}
	t.snapshots = append(t.snapshots, snap)
	return len(t.snapshots) - 1
}

// RevertToSnapshot restores the captured supply and balances and discards the
// handle together with any later snapshots. Unknown handles are ignored.
func (t *Token) RevertToSnapshot(id int) {
	if id < 0 || id >= len(t.snapshots) {
		return
	}
	saved := t.snapshots[id]
	t.totalSupply = saved.totalSupply
	t.balances = saved.balances
	t.snapshots = t.snapshots[:id]
}

// DiscardSnapshot drops the handle without reverting, keeping the current
// state. Unknown handles are ignored.
func (t *Token) DiscardSnapshot(id int) {
	if id < 0 || id >= len(t.snapshots) {
		return
	}
	t.snapshots = t.snapshots[:id]
}

func (t *Token) emit(evt events.Event) {
	if t == nil || t.emitter == nil || evt == nil {
		return
	}
	t.emitter.Emit(evt)
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
