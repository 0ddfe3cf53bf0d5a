package recurring

import "math/big"

// CategoryTag is the category stamped on donations replayed from recurring
// intents.
const CategoryTag = "recurring"

// Intent is a standing donation instruction owned by exactly one donor. Its
// index inside the donor's list is stable for the life of the list:
// cancellation marks the intent inactive rather than compacting the slice.
type Intent struct {
	ProjectID uint64
	Amount    *big.Int
	Frequency int64
	NextDue   int64
	Category  string
	Active    bool
	CreatedAt int64
}

// Clone returns a deep copy of the intent.
func (i *Intent) Clone() *Intent {
	if i == nil {
		return nil
	}
	clone := *i
	clone.Amount = cloneBigInt(i.Amount)
	return &clone
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
