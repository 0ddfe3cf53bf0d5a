package collectible

import (
	"sort"
	"strings"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"givechain/core/events"
	"givechain/native/access"
)

type accessView interface {
	HasRole(role string, addr [20]byte) bool
}

// Collectible is a unique token issued once per qualifying donation.
// Identifiers are sequential and never reused. Digest is the keccak256 hash
// of the attribute set in key order, so identical attribute sets produce
// identical digests regardless of map iteration order.
type Collectible struct {
	ID         uint64
	Owner      [20]byte
	Attributes map[string]string
	URI        string
	Digest     [32]byte
	MintedAt   int64
}

// Clone returns a deep copy of the collectible.
func (c *Collectible) Clone() *Collectible {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Attributes != nil {
		clone.Attributes = make(map[string]string, len(c.Attributes))
		for k, v := range c.Attributes {
			clone.Attributes[k] = v
		}
	}
	return &clone
}

// Registry stores minted collectibles and enforces the minter allow-list and
// the global supply ceiling.
type Registry struct {
	access    accessView
	emitter   events.Emitter
	nowFn     func() int64
	maxSupply uint64
	nextID    uint64
	tokens    map[uint64]*Collectible
	byOwner   map[[20]byte][]uint64
	snapshots []registrySnapshot
}

type registrySnapshot struct {
	nextID  uint64
	tokens  map[uint64]*Collectible
	byOwner map[[20]byte][]uint64
}

// NewRegistry creates a collectible registry. A zero maxSupply disables the
// supply ceiling.
func NewRegistry(maxSupply uint64) *Registry {
	return &Registry{
		emitter:   events.NoopEmitter{},
		nowFn:     func() int64 { return time.Now().Unix() },
		maxSupply: maxSupply,
		tokens:    make(map[uint64]*Collectible),
		byOwner:   make(map[[20]byte][]uint64),
	}
}

// SetAccess configures the role registry consulted for minter checks.
func (r *Registry) SetAccess(registry accessView) { r.access = registry }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op
// implementation.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetNowFunc overrides the time source. Primarily intended for tests.
func (r *Registry) SetNowFunc(now func() int64) {
	if now == nil {
		r.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	r.nowFn = now
}

// TotalMinted returns the number of collectibles issued so far.
func (r *Registry) TotalMinted() uint64 {
	if r == nil {
		return 0
	}
	return r.nextID
}

// MintCollectible issues a new collectible to the owner. The caller must hold
// the minter role and the global supply ceiling must not be reached.
// Identifiers start at 1 so a zero id can signal "no collectible" to callers.
func (r *Registry) MintCollectible(caller [20]byte, owner [20]byte, attributes map[string]string, uri string) (uint64, error) {
	if r == nil {
		return 0, ErrNotConfigured
	}
	if r.access == nil || !r.access.HasRole(access.RoleMinter, caller) {
		return 0, ErrUnauthorized
	}
	if r.maxSupply > 0 && r.nextID >= r.maxSupply {
		return 0, ErrSupplyCeiling
	}
	attrs := make(map[string]string, len(attributes))
	for k, v := range attributes {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		attrs[key] = v
	}
	r.nextID++
	c := &Collectible{
		ID:         r.nextID,
		Owner:      owner,
		Attributes: attrs,
		URI:        strings.TrimSpace(uri),
		Digest:     attributesDigest(attrs),
		MintedAt:   r.nowFn(),
	}
	r.tokens[c.ID] = c
	r.byOwner[owner] = append(r.byOwner[owner], c.ID)
	r.emit(NewMintedEvent(c))
	return c.ID, nil
}

// Get returns a copy of the collectible with the supplied identifier.
func (r *Registry) Get(id uint64) (*Collectible, error) {
	if r == nil {
		return nil, ErrNotConfigured
	}
	c, ok := r.tokens[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

// OwnedBy returns the identifiers minted to the owner in mint order.
func (r *Registry) OwnedBy(owner [20]byte) []uint64 {
	if r == nil {
		return nil
	}
	ids := r.byOwner[owner]
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out
}

// Snapshot captures the mint sequence and token maps and returns a handle for
// RevertToSnapshot. Snapshots nest: an inner revert leaves outer snapshots
// usable. The donation ledger snapshots the registry alongside its own state
// so a failing donation rolls minted collectibles back with everything else.
func (r *Registry) Snapshot() int {
	snap := registrySnapshot{
		nextID:  r.nextID,
		tokens:  make(map[uint64]*Collectible, len(r.tokens)),
		byOwner: make(map[[20]byte][]uint64, len(r.byOwner)),
	}
	for id, c := range r.tokens {
		snap.tokens[id] = c.Clone()
	}
	for owner, ids := range r.byOwner {
		owned := make([]uint64, len(ids))
		copy(owned, ids)
		snap.byOwner[owner] = owned
	}
	r.snapshots = append(r.snapshots, snap)
	return len(r.snapshots) - 1
}

// RevertToSnapshot restores the captured registry contents and discards the
// handle together with any later snapshots. Unknown handles are ignored.
func (r *Registry) RevertToSnapshot(id int) {
	if id < 0 || id >= len(r.snapshots) {
		return
	}
	saved := r.snapshots[id]
	r.nextID = saved.nextID
	r.tokens = saved.tokens
	r.byOwner = saved.byOwner
	r.snapshots = r.snapshots[:id]
}

// DiscardSnapshot drops the handle without reverting, keeping the current
// state. Unknown handles are ignored.
func (r *Registry) DiscardSnapshot(id int) {
	if id < 0 || id >= len(r.snapshots) {
		return
	}
	r.snapshots = r.snapshots[:id]
}

func (r *Registry) emit(evt events.Event) {
	if r == nil || r.emitter == nil || evt == nil {
		return
	}
	r.emitter.Emit(evt)
}

func attributesDigest(attrs map[string]string) [32]byte {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var payload []byte
	for _, k := range keys {
		payload = append(payload, []byte(k)...)
		payload = append(payload, 0)
		payload = append(payload, []byte(attrs[k])...)
		payload = append(payload, 0)
	}
	return ethcrypto.Keccak256Hash(payload)
}
