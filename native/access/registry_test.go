package access

import (
	"errors"
	"testing"

	"givechain/core/events"
)

func addr(b byte) [20]byte {
	var a [20]byte
	a[19] = b
	return a
}

var (
	owner    = addr(1)
	verifier = addr(2)
	stranger = addr(3)
)

func newTestRegistry(t *testing.T) (*Registry, *events.Recorder) {
	t.Helper()
	recorder := events.NewRecorder()
	registry := NewRegistry(owner)
	registry.SetEmitter(recorder)
	return registry, recorder
}

func TestOwnerImplicitlyHoldsEveryRole(t *testing.T) {
	registry, _ := newTestRegistry(t)
	if !registry.HasRole(RoleVerifier, owner) {
		t.Fatalf("owner must implicitly hold verifier role")
	}
	if !registry.HasRole(RoleOperator, owner) {
		t.Fatalf("owner must implicitly hold operator role")
	}
	if registry.HasRole(RoleVerifier, stranger) {
		t.Fatalf("stranger must not hold roles")
	}
}

func TestGrantRevoke(t *testing.T) {
	registry, recorder := newTestRegistry(t)

	if err := registry.Grant(stranger, RoleVerifier, verifier); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := registry.Grant(owner, "  ", verifier); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if err := registry.Grant(owner, RoleVerifier, verifier); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !registry.HasRole(RoleVerifier, verifier) {
		t.Fatalf("verifier role not granted")
	}

	// Re-granting is a silent no-op.
	if err := registry.Grant(owner, RoleVerifier, verifier); err != nil {
		t.Fatalf("re-grant: %v", err)
	}
	if got := len(recorder.ByType(EventTypeRoleGranted)); got != 1 {
		t.Fatalf("expected one grant event, got %d", got)
	}

	if err := registry.Revoke(owner, RoleVerifier, verifier); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if registry.HasRole(RoleVerifier, verifier) {
		t.Fatalf("role still held after revoke")
	}
	if err := registry.Revoke(owner, RoleVerifier, verifier); err != nil {
		t.Fatalf("re-revoke: %v", err)
	}
	if got := len(recorder.ByType(EventTypeRoleRevoked)); got != 1 {
		t.Fatalf("expected one revoke event, got %d", got)
	}
}

func TestRoleNamesNormalized(t *testing.T) {
	registry, _ := newTestRegistry(t)
	if err := registry.Grant(owner, "role_verifier", verifier); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !registry.HasRole(" ROLE_VERIFIER ", verifier) {
		t.Fatalf("role lookup must normalize case and whitespace")
	}
}

func TestMembersExcludesOwner(t *testing.T) {
	registry, _ := newTestRegistry(t)
	if err := registry.Grant(owner, RoleVerifier, verifier); err != nil {
		t.Fatalf("grant: %v", err)
	}
	members := registry.Members(RoleVerifier)
	if len(members) != 1 || members[0] != verifier {
		t.Fatalf("unexpected members %v", members)
	}
}

func TestTransferOwnership(t *testing.T) {
	registry, _ := newTestRegistry(t)
	next := addr(9)

	if err := registry.TransferOwnership(stranger, next); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := registry.TransferOwnership(owner, [20]byte{}); err == nil {
		t.Fatalf("expected zero address rejection")
	}
	if err := registry.TransferOwnership(owner, next); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if !registry.IsOwner(next) || registry.IsOwner(owner) {
		t.Fatalf("ownership not transferred")
	}
	// The former owner loses its implicit role membership.
	if registry.HasRole(RoleVerifier, owner) {
		t.Fatalf("former owner must not retain implicit roles")
	}
	if !registry.HasRole(RoleVerifier, next) {
		t.Fatalf("new owner must hold implicit roles")
	}
}
