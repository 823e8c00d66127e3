package monitor

import "testing"

func TestRegistry_registerKeepsArrivalOrder(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"3", "1", "2"} {
		if !r.Register(Device{ID: id}) {
			t.Fatalf("Register(%s) = false", id)
		}
	}

	got := r.List()
	if len(got) != 3 || got[0].ID != "3" || got[1].ID != "1" || got[2].ID != "2" {
		t.Fatalf("List() order = %+v", got)
	}
}

func TestRegistry_reregisterReplacesInPlace(t *testing.T) {
	r := NewRegistry()
	r.Register(Device{ID: "1", Name: "old"})
	r.Register(Device{ID: "2"})
	r.Register(Device{ID: "1", Name: "new"})

	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
	if got := r.List()[0]; got.ID != "1" || got.Name != "new" {
		t.Fatalf("first device = %+v, want id 1 named new", got)
	}
}

func TestRegistry_blockIsPermanent(t *testing.T) {
	r := NewRegistry()
	r.Register(Device{ID: "2"})

	if _, ok := r.Block("2"); !ok {
		t.Fatal("Block(2) = false")
	}
	if _, ok := r.Get("2"); ok {
		t.Fatal("blocked device still visible")
	}
	if !r.IsBlocked("2") {
		t.Fatal("IsBlocked(2) = false")
	}
	if r.Register(Device{ID: "2"}) {
		t.Fatal("Register accepted a blocked id")
	}
	if r.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", r.Len())
	}
}

func TestRegistry_blockUnknown(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Block("missing"); ok {
		t.Fatal("Block(missing) = true")
	}
	if r.IsBlocked("missing") {
		t.Fatal("unknown id was added to the blocked set")
	}
}

func TestRegistry_seededBlockedIDs(t *testing.T) {
	r := NewRegistry("a", "b")
	if r.Register(Device{ID: "a"}) {
		t.Fatal("seeded blocked id was registered")
	}
	if r.BlockedCount() != 2 {
		t.Fatalf("BlockedCount() = %d, want 2", r.BlockedCount())
	}
}

func TestRegistry_authorize(t *testing.T) {
	r := NewRegistry()
	r.Register(Device{ID: "1"})

	dev, ok := r.Authorize("1")
	if !ok || !dev.Authorized {
		t.Fatalf("Authorize(1) = %+v, %v", dev, ok)
	}
	if got, _ := r.Get("1"); !got.Authorized {
		t.Fatal("authorization not stored")
	}
	if _, ok := r.Authorize("nope"); ok {
		t.Fatal("Authorize(nope) = true")
	}
}
