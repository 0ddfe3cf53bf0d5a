package access

import (
	"strings"

	"givechain/core/events"
)

// Canonical role identifiers understood by the platform.
const (
	// RoleVerifier may verify projects, add milestones and complete them.
	RoleVerifier = "ROLE_VERIFIER"
	// RoleOperator may drive operational batch paths such as recurring
	// donation replay.
	RoleOperator = "ROLE_OPERATOR"
	// RoleMinter may mint reward credits and collectibles.
	RoleMinter = "ROLE_MINTER"
)

// VerifierThreshold is the advertised multi-verifier quorum size. No quorum
// logic consults it yet; it is exposed so operators can surface the intended
// policy.
const VerifierThreshold = 2

// Registry holds the owner address and the per-role allow-lists gating
// privileged operations. All role mutation is owner-only and the owner
// implicitly holds every role.
type Registry struct {
	owner   [20]byte
	roles   map[string]map[[20]byte]struct{}
	emitter events.Emitter
}

// NewRegistry creates a registry owned by the supplied address.
func NewRegistry(owner [20]byte) *Registry {
	return &Registry{
		owner:   owner,
		roles:   make(map[string]map[[20]byte]struct{}),
		emitter: events.NoopEmitter{},
	}
}

// SetEmitter configures the event emitter used to broadcast role changes.
// Passing nil resets the emitter to a no-op implementation.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// Owner returns the registry owner.
func (r *Registry) Owner() [20]byte {
	if r == nil {
		return [20]byte{}
	}
	return r.owner
}

// IsOwner reports whether the supplied address is the registry owner.
func (r *Registry) IsOwner(addr [20]byte) bool {
	if r == nil {
		return false
	}
	return addr == r.owner
}

// HasRole reports whether the address holds the role. The owner implicitly
// holds every role.
func (r *Registry) HasRole(role string, addr [20]byte) bool {
	if r == nil {
		return false
	}
	if addr == r.owner {
		return true
	}
	members, ok := r.roles[normalizeRole(role)]
	if !ok {
		return false
	}
	_, ok = members[addr]
	return ok
}

// Grant adds the address to the role allow-list. Only the owner may grant
// roles. Granting an already-held role is a no-op.
func (r *Registry) Grant(caller [20]byte, role string, addr [20]byte) error {
	if r == nil {
		return ErrUnauthorized
	}
	if caller != r.owner {
		return ErrUnauthorized
	}
	normalized := normalizeRole(role)
	if normalized == "" {
		return ErrInvalidRole
	}
	members, ok := r.roles[normalized]
	if !ok {
		members = make(map[[20]byte]struct{})
		r.roles[normalized] = members
	}
	if _, held := members[addr]; held {
		return nil
	}
	members[addr] = struct{}{}
	r.emit(NewRoleGrantedEvent(normalized, addr))
	return nil
}

// Revoke removes the address from the role allow-list. Only the owner may
// revoke roles. Revoking a role the address does not hold is a no-op.
func (r *Registry) Revoke(caller [20]byte, role string, addr [20]byte) error {
	if r == nil {
		return ErrUnauthorized
	}
	if caller != r.owner {
		return ErrUnauthorized
	}
	normalized := normalizeRole(role)
	if normalized == "" {
		return ErrInvalidRole
	}
	members, ok := r.roles[normalized]
	if !ok {
		return nil
	}
	if _, held := members[addr]; !held {
		return nil
	}
	delete(members, addr)
	r.emit(NewRoleRevokedEvent(normalized, addr))
	return nil
}

// Members returns the allow-list for the role in unspecified order. The owner
// is not included even though it implicitly holds the role.
func (r *Registry) Members(role string) [][20]byte {
	if r == nil {
		return nil
	}
	members, ok := r.roles[normalizeRole(role)]
	if !ok {
		return nil
	}
	out := make([][20]byte, 0, len(members))
	for addr := range members {
		out = append(out, addr)
	}
	return out
}

// TransferOwnership hands the registry to a new owner. Only the current owner
// may transfer.
func (r *Registry) TransferOwnership(caller [20]byte, next [20]byte) error {
	if r == nil || caller != r.owner {
		return ErrUnauthorized
	}
	if next == ([20]byte{}) {
		return ErrInvalidRole
	}
	previous := r.owner
	r.owner = next
	r.emit(NewOwnershipTransferredEvent(previous, next))
	return nil
}

func (r *Registry) emit(evt events.Event) {
	if r == nil || r.emitter == nil || evt == nil {
		return
	}
	r.emitter.Emit(evt)
}

func normalizeRole(role string) string {
	return strings.ToUpper(strings.TrimSpace(role))
}
