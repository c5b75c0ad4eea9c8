package proforma

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// VersionID identifies a pro forma version as {major}.{minor}, written "v3.1".
//
// A major version denotes a structurally significant revision (for instance a
// post-bid cost update), a minor one an adjustment within the same baseline.
// Which one to use is the caller's decision.
type VersionID struct {
	Major, Minor int
}

// V creates a VersionID.
func V(major, minor int) VersionID { return VersionID{Major: major, Minor: minor} }

// Bump selects the part of a VersionID incremented for a new draft.
type Bump int

const (
	// Minor increments the minor number: v3.1 -> v3.2.
	Minor Bump = iota
	// Major increments the major number and resets the minor one: v3.1 -> v4.0.
	Major
)

func (b Bump) String() string {
	if b == Major {
		return "major"
	}
	return "minor"
}

// Next returns the identifier following id.
func (id VersionID) Next(b Bump) VersionID {
	if b == Major {
		return VersionID{Major: id.Major + 1}
	}
	return VersionID{Major: id.Major, Minor: id.Minor + 1}
}

// Compare orders identifiers by major then minor number.
func (id VersionID) Compare(other VersionID) int {
	if c := cmp.Compare(id.Major, other.Major); c != 0 {
		return c
	}
	return cmp.Compare(id.Minor, other.Minor)
}

func (id VersionID) Less(other VersionID) bool { return id.Compare(other) < 0 }
func (id VersionID) IsZero() bool              { return id == VersionID{} }

func (id VersionID) String() string { return fmt.Sprintf("v%d.%d", id.Major, id.Minor) }

// ParseVersionID parses "v3.1" or "3.1".
func ParseVersionID(s string) (VersionID, error) {
	major, minor, ok := strings.Cut(strings.TrimPrefix(strings.TrimSpace(s), "v"), ".")
	if !ok {
		return VersionID{}, fmt.Errorf("invalid version %q, want format v{major}.{minor}", s)
	}
	ma, err := strconv.Atoi(major)
	if err != nil || ma < 0 {
		return VersionID{}, fmt.Errorf("invalid major number in version %q", s)
	}
	mi, err := strconv.Atoi(minor)
	if err != nil || mi < 0 {
		return VersionID{}, fmt.Errorf("invalid minor number in version %q", s)
	}
	return VersionID{Major: ma, Minor: mi}, nil
}

func (id VersionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *VersionID) UnmarshalText(text []byte) error {
	v, err := ParseVersionID(string(text))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// ProformaVersion is a pro forma snapshot in the version history.
//
// A ProformaVersion is a value: modifying a copy never changes the history it
// came from, and its Snapshot is immutable.
type ProformaVersion struct {
	ID        VersionID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Locked    bool      `json:"locked"`
	Notes     string    `json:"notes,omitempty"`
	Snapshot  Proforma  `json:"snapshot"`
}

// IsDraft returns true for the editable version.
func (v ProformaVersion) IsDraft() bool { return !v.Locked }
