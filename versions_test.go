package proforma

import (
	"errors"
	"slices"
	"testing"
)

func ids(v *Versions) []VersionID {
	var list []VersionID
	for ver := range v.List() {
		list = append(list, ver.ID)
	}
	return list
}

func TestVersions_Lifecycle(t *testing.T) {
	v := NewVersions(scenario(t), WithClock(fixedClock()))

	d, ok := v.Draft()
	if !ok || d.ID != V(1, 0) {
		t.Fatalf("Draft() = %v, %v, want v1.0", d.ID, ok)
	}

	locked, err := v.Lock(V(1, 0), "initial underwriting")
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if !locked.Locked || locked.Notes != "initial underwriting" {
		t.Errorf("Lock() = %+v, want a locked version with notes", locked)
	}
	if !locked.CreatedAt.After(d.CreatedAt) {
		t.Errorf("Lock() CreatedAt = %v, want after %v", locked.CreatedAt, d.CreatedAt)
	}
	if _, ok := v.Draft(); ok {
		t.Error("Draft() after Lock() should not exist")
	}

	d2, err := v.CreateDraft(&locked, Minor)
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	if d2.ID != V(1, 1) {
		t.Errorf("CreateDraft(minor) = %v, want v1.1", d2.ID)
	}
	if _, err := v.Lock(V(1, 1), ""); err != nil {
		t.Fatalf("Lock(v1.1) error = %v", err)
	}
	last, _ := v.Latest()
	d3, err := v.CreateDraft(&last, Major)
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	if d3.ID != V(2, 0) {
		t.Errorf("CreateDraft(major) = %v, want v2.0", d3.ID)
	}

	want := []VersionID{V(2, 0), V(1, 1), V(1, 0)}
	if got := ids(v); !slices.Equal(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestVersions_LockedAreImmutable(t *testing.T) {
	v := NewVersions(scenario(t))
	locked, err := v.Lock(V(1, 0), "")
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	before := Derive(locked.Snapshot)

	d, err := v.CreateDraft(&locked, Minor)
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	edited, err := d.Snapshot.SetItem(Item(HardCosts, "Contingency", USD(500000)))
	if err != nil {
		t.Fatalf("SetItem() error = %v", err)
	}
	if _, err := v.Update(d.ID, edited); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// any attempt to edit the locked version fails.
	if _, err := v.Update(V(1, 0), edited); !errors.Is(err, ErrAlreadyLocked) {
		t.Errorf("Update(locked) error = %v, want %v", err, ErrAlreadyLocked)
	}
	if err := v.Discard(V(1, 0)); !errors.Is(err, ErrAlreadyLocked) {
		t.Errorf("Discard(locked) error = %v, want %v", err, ErrAlreadyLocked)
	}

	got, err := v.Get(V(1, 0))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	after := Derive(got.Snapshot)
	if !after.TotalCosts.Equal(before.TotalCosts) {
		t.Errorf("locked TotalCosts = %v, want %v", after.TotalCosts.Decimal(), before.TotalCosts.Decimal())
	}
	draft, _ := v.Draft()
	if Derive(draft.Snapshot).TotalCosts.Equal(before.TotalCosts) {
		t.Error("draft TotalCosts should reflect the edit")
	}
}

func TestVersions_Errors(t *testing.T) {
	v := NewVersions(scenario(t))

	if _, err := v.CreateDraft(nil, Minor); !errors.Is(err, ErrInvalidState) {
		t.Errorf("CreateDraft() with a draft error = %v, want %v", err, ErrInvalidState)
	}
	if _, err := v.Lock(V(9, 9), ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lock(unknown) error = %v, want %v", err, ErrNotFound)
	}
	if _, err := v.Get(V(9, 9)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(unknown) error = %v, want %v", err, ErrNotFound)
	}

	if _, err := v.Lock(V(1, 0), ""); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if _, err := v.Lock(V(1, 0), ""); !errors.Is(err, ErrAlreadyLocked) {
		t.Errorf("Lock() twice error = %v, want %v", err, ErrAlreadyLocked)
	}

	// a stale caller holding a discarded draft identifier.
	stale, err := v.CreateDraft(nil, Minor)
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	if err := v.Discard(stale.ID); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}
	fresh, err := v.CreateDraft(nil, Minor)
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	if fresh.ID == stale.ID {
		t.Errorf("CreateDraft() reused identifier %v", stale.ID)
	}
	if _, err := v.Lock(stale.ID, ""); !errors.Is(err, ErrConflict) {
		t.Errorf("Lock(stale) error = %v, want %v", err, ErrConflict)
	}
	if _, err := v.Update(stale.ID, fresh.Snapshot); !errors.Is(err, ErrConflict) {
		t.Errorf("Update(stale) error = %v, want %v", err, ErrConflict)
	}
	if err := v.Discard(stale.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("Discard(stale) error = %v, want %v", err, ErrConflict)
	}
	if _, err := v.Update(fresh.ID, Proforma{}); !errors.Is(err, ErrValidation) {
		t.Errorf("Update(zero) error = %v, want %v", err, ErrValidation)
	}
}

func TestVersions_Monotonic(t *testing.T) {
	v := NewVersions(scenario(t))
	bumps := []Bump{Minor, Minor, Major, Minor, Major, Major, Minor}
	for i, b := range bumps {
		d, _ := v.Draft()
		locked, err := v.Lock(d.ID, "")
		if err != nil {
			t.Fatalf("step %d: Lock() error = %v", i, err)
		}
		if i%3 == 0 {
			// discarded drafts consume their identifier too.
			d, err := v.CreateDraft(&locked, b)
			if err != nil {
				t.Fatalf("step %d: CreateDraft() error = %v", i, err)
			}
			if err := v.Discard(d.ID); err != nil {
				t.Fatalf("step %d: Discard() error = %v", i, err)
			}
		}
		if _, err := v.CreateDraft(&locked, b); err != nil {
			t.Fatalf("step %d: CreateDraft() error = %v", i, err)
		}
	}

	list := ids(v)
	for i := 1; i < len(list); i++ {
		if !list[i].Less(list[i-1]) {
			t.Errorf("List() not strictly decreasing at %d: %v", i, list)
		}
	}
	if len(list) != len(bumps)+1 {
		t.Errorf("List() has %d versions, want %d", len(list), len(bumps)+1)
	}
}

func TestVersions_ListIsRestartable(t *testing.T) {
	v := NewVersions(scenario(t))
	seq := v.List()

	var n int
	for range seq {
		n++
	}
	if _, err := v.Lock(V(1, 0), ""); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	last, _ := v.Latest()
	if _, err := v.CreateDraft(&last, Minor); err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	var m int
	for range seq {
		m++
	}
	if n != 1 || m != 2 {
		t.Errorf("List() yielded %d then %d versions, want 1 then 2", n, m)
	}
}

func TestRestoreVersions(t *testing.T) {
	v := NewVersions(scenario(t))
	locked, _ := v.Lock(V(1, 0), "bid")
	d, _ := v.CreateDraft(&locked, Major)

	restored, err := RestoreVersions(Record{Versions: []ProformaVersion{d, locked}})
	if err != nil {
		t.Fatalf("RestoreVersions() error = %v", err)
	}
	if got, want := ids(restored), []VersionID{V(2, 0), V(1, 0)}; !slices.Equal(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
	if _, err := restored.Lock(V(2, 0), ""); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	last, _ := restored.Latest()
	next, err := restored.CreateDraft(&last, Minor)
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	if next.ID != V(2, 1) {
		t.Errorf("CreateDraft() = %v, want v2.1", next.ID)
	}

	testCases := []struct {
		name string
		list []ProformaVersion
	}{
		{"empty", nil},
		{"draft before locked", []ProformaVersion{{ID: V(1, 0), Snapshot: scenario(t)}, locked2(t)}},
		{"duplicate", []ProformaVersion{locked, locked}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := RestoreVersions(Record{Versions: tc.list}); err == nil {
				t.Error("RestoreVersions() expected an error")
			}
		})
	}
}

func TestRestoreVersions_DiscardedDraft(t *testing.T) {
	v := NewVersions(scenario(t))
	locked, _ := v.Lock(V(1, 0), "")
	stale, _ := v.CreateDraft(&locked, Minor)
	if err := v.Discard(stale.ID); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}
	if v.Issued() != V(1, 1) {
		t.Fatalf("Issued() = %v, want v1.1", v.Issued())
	}

	restored, err := RestoreVersions(Record{Versions: []ProformaVersion{locked}, Issued: v.Issued()})
	if err != nil {
		t.Fatalf("RestoreVersions() error = %v", err)
	}
	fresh, err := restored.CreateDraft(&locked, Minor)
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	if fresh.ID != V(1, 2) {
		t.Errorf("CreateDraft() = %v, want v1.2", fresh.ID)
	}
	if _, err := restored.Lock(stale.ID, ""); !errors.Is(err, ErrConflict) {
		t.Errorf("Lock(stale) error = %v, want %v", err, ErrConflict)
	}
}

func TestVersions_DiscardOnlyVersion(t *testing.T) {
	v := NewVersions(scenario(t))
	if err := v.Discard(V(1, 0)); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Discard(only version) error = %v, want %v", err, ErrInvalidState)
	}
	if v.Len() != 1 {
		t.Errorf("Len() = %d, want 1", v.Len())
	}
}

func locked2(t *testing.T) ProformaVersion {
	return ProformaVersion{ID: V(2, 0), Locked: true, Snapshot: scenario(t)}
}

func TestParseVersionID(t *testing.T) {
	testCases := []struct {
		in      string
		want    VersionID
		wantErr bool
	}{
		{"v3.1", V(3, 1), false},
		{"3.1", V(3, 1), false},
		{" v10.0 ", V(10, 0), false},
		{"v3", VersionID{}, true},
		{"vx.1", VersionID{}, true},
		{"v1.-1", VersionID{}, true},
	}
	for _, tc := range testCases {
		got, err := ParseVersionID(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseVersionID(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseVersionID(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
