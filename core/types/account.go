package types

import "math/big"

// Account tracks the platform-currency balance held by an address. Project
// escrow vaults, the fee treasury and project creators are all plain accounts;
// donors never hold a balance because donation value arrives with the call.
type Account struct {
	Balance *big.Int `json:"balance"`
}

// NewAccount returns an account with a zeroed balance.
func NewAccount() *Account {
	return &Account{Balance: big.NewInt(0)}
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return NewAccount()
	}
	clone := NewAccount()
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	}
	return clone
}
