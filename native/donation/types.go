package donation

import "math/big"

// Donation is one recorded donation event. NetAmount is the post-fee value
// actually applied to the project; the gross value never persists.
// RewardsClaimed is always true because rewards are issued synchronously with
// the donation; the field is retained for ledger compatibility.
type Donation struct {
	ID             uint64
	Donor          [20]byte
	ProjectID      uint64
	NetAmount      *big.Int
	Category       string
	Message        string
	Timestamp      int64
	RewardsClaimed bool
	Receipt        [32]byte
}

// UserStats aggregates per-donor activity. The record is derived from
// donation events and never mutated outside the donation path.
type UserStats struct {
	TotalDonations     uint64
	TotalAmount        *big.Int
	RewardCredits      *big.Int
	CollectiblesEarned uint64
	LastDonationAt     int64
}

// NewUserStats returns a zeroed stats record.
func NewUserStats() *UserStats {
	return &UserStats{
		TotalAmount:   big.NewInt(0),
		RewardCredits: big.NewInt(0),
	}
}

// Clone returns a deep copy of the donation.
func (d *Donation) Clone() *Donation {
	if d == nil {
		return nil
	}
	clone := *d
	clone.NetAmount = cloneBigInt(d.NetAmount)
	return &clone
}

// Clone returns a deep copy of the stats record.
func (s *UserStats) Clone() *UserStats {
	if s == nil {
		return NewUserStats()
	}
	clone := *s
	clone.TotalAmount = cloneBigInt(s.TotalAmount)
	clone.RewardCredits = cloneBigInt(s.RewardCredits)
	return &clone
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
