package collectible

import (
	"errors"
	"testing"

	"givechain/core/events"
	"givechain/native/access"
)

type mockAccess struct {
	minters map[[20]byte]bool
}

func (m *mockAccess) HasRole(role string, addr [20]byte) bool {
	if role != access.RoleMinter {
		return false
	}
	return m.minters[addr]
}

func addr(b byte) [20]byte {
	var a [20]byte
	a[19] = b
	return a
}

var (
	minter = addr(1)
	owner  = addr(2)
)

func newTestRegistry(t *testing.T, maxSupply uint64) (*Registry, *events.Recorder) {
	t.Helper()
	recorder := events.NewRecorder()
	registry := NewRegistry(maxSupply)
	registry.SetAccess(&mockAccess{minters: map[[20]byte]bool{minter: true}})
	registry.SetEmitter(recorder)
	registry.SetNowFunc(func() int64 { return 1_700_000_000 })
	return registry, recorder
}

func TestMintCollectibleAssignsSequentialIDs(t *testing.T) {
	registry, recorder := newTestRegistry(t, 0)
	for want := uint64(1); want <= 3; want++ {
		id, err := registry.MintCollectible(minter, owner, map[string]string{"category": "coral"}, "u")
		if err != nil {
			t.Fatalf("mint %d: %v", want, err)
		}
		if id != want {
			t.Fatalf("expected id %d, got %d", want, id)
		}
	}
	if len(recorder.ByType(EventTypeMinted)) != 3 {
		t.Fatalf("expected 3 mint events")
	}
}

func TestMintCollectibleRequiresRole(t *testing.T) {
	registry, _ := newTestRegistry(t, 0)
	if _, err := registry.MintCollectible(owner, owner, nil, ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestMintCollectibleSupplyCeiling(t *testing.T) {
	registry, _ := newTestRegistry(t, 2)
	for i := 0; i < 2; i++ {
		if _, err := registry.MintCollectible(minter, owner, nil, ""); err != nil {
			t.Fatalf("mint %d: %v", i, err)
		}
	}
	if _, err := registry.MintCollectible(minter, owner, nil, ""); !errors.Is(err, ErrSupplyCeiling) {
		t.Fatalf("expected ErrSupplyCeiling, got %v", err)
	}
	if registry.TotalMinted() != 2 {
		t.Fatalf("expected 2 minted, got %d", registry.TotalMinted())
	}
}

func TestGetAndOwnedBy(t *testing.T) {
	registry, _ := newTestRegistry(t, 0)
	attrs := map[string]string{"category": "coral", "projectId": "7"}
	id, err := registry.MintCollectible(minter, owner, attrs, "https://meta.example/coral")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	c, err := registry.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.Owner != owner || c.Attributes["category"] != "coral" {
		t.Fatalf("unexpected collectible %+v", c)
	}
	var zero [32]byte
	if c.Digest == zero {
		t.Fatalf("digest not set")
	}

	if _, err := registry.Get(99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	ids := registry.OwnedBy(owner)
	if len(ids) != 1 || ids[0] != id {
		t.Fatalf("unexpected owned set %v", ids)
	}
	if got := registry.OwnedBy(addr(9)); len(got) != 0 {
		t.Fatalf("expected empty owned set, got %v", got)
	}
}

func TestAttributesDigestDeterministic(t *testing.T) {
	a := attributesDigest(map[string]string{"x": "1", "y": "2"})
	b := attributesDigest(map[string]string{"y": "2", "x": "1"})
	if a != b {
		t.Fatalf("digest must be order independent")
	}
	c := attributesDigest(map[string]string{"x": "1", "y": "3"})
	if a == c {
		t.Fatalf("digest must reflect values")
	}
}

func TestSnapshotRevertRestoresMints(t *testing.T) {
	registry, _ := newTestRegistry(t, 0)
	first, err := registry.MintCollectible(minter, owner, map[string]string{"category": "reforestation"}, "")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	snap := registry.Snapshot()
	second, err := registry.MintCollectible(minter, owner, map[string]string{"category": "wetlands"}, "")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	registry.RevertToSnapshot(snap)
	if registry.TotalMinted() != 1 {
		t.Fatalf("expected 1 minted after revert, got %d", registry.TotalMinted())
	}
	if _, err := registry.Get(second); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected reverted collectible gone, got %v", err)
	}
	if ids := registry.OwnedBy(owner); len(ids) != 1 || ids[0] != first {
		t.Fatalf("unexpected owned set after revert %v", ids)
	}

	// The reverted identifier is reissued, keeping the sequence gapless.
	reminted, err := registry.MintCollectible(minter, owner, map[string]string{"category": "wetlands"}, "")
	if err != nil {
		t.Fatalf("mint after revert: %v", err)
	}
	if reminted != second {
		t.Fatalf("expected id %d reissued, got %d", second, reminted)
	}
}

func TestDiscardSnapshotKeepsMints(t *testing.T) {
	registry, _ := newTestRegistry(t, 0)
	snap := registry.Snapshot()
	id, err := registry.MintCollectible(minter, owner, map[string]string{"category": "reforestation"}, "")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	registry.DiscardSnapshot(snap)
	if len(registry.snapshots) != 0 {
		t.Fatalf("expected snapshot released, %d retained", len(registry.snapshots))
	}
	if _, err := registry.Get(id); err != nil {
		t.Fatalf("discard must keep the mint: %v", err)
	}
}
