package types

import (
	"fmt"
	"strings"
)

// TableRole is a permission level on a table. Roles are totally ordered:
// RoleNone < RoleReader < RoleWriter < RoleOwner. There is no deny role;
// absence of a grant means RoleNone.
type TableRole int

// Table roles in increasing order of privilege.
const (
	RoleNone TableRole = iota
	RoleReader
	RoleWriter
	RoleOwner
)

// String returns the canonical upper-case role name.
func (r TableRole) String() string {
	switch r {
	case RoleNone:
		return "NONE"
	case RoleReader:
		return "READER"
	case RoleWriter:
		return "WRITER"
	case RoleOwner:
		return "OWNER"
	}
	panic(fmt.Sprintf("unknown table role %d", int(r)))
}

// Valid reports whether r is one of the defined roles.
func (r TableRole) Valid() bool {
	return r >= RoleNone && r <= RoleOwner
}

// AtLeast reports whether r grants at least the privileges of min.
func (r TableRole) AtLeast(min TableRole) bool {
	return r >= min
}

// MaxRole returns the more privileged of a and b.
func MaxRole(a, b TableRole) TableRole {
	if a > b {
		return a
	}
	return b
}

// ParseTableRole parses NONE, READER, WRITER or OWNER (case-insensitive).
func ParseTableRole(s string) (TableRole, error) {
	switch strings.ToUpper(s) {
	case "NONE":
		return RoleNone, nil
	case "READER":
		return RoleReader, nil
	case "WRITER":
		return RoleWriter, nil
	case "OWNER":
		return RoleOwner, nil
	}
	return RoleNone, fmt.Errorf("%w: unknown table role %q", ErrInvalidArgument, s)
}

// MarshalText encodes the role by name.
func (r TableRole) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: unknown table role %d", ErrInvalidArgument, int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role name.
func (r *TableRole) UnmarshalText(text []byte) error {
	role, err := ParseTableRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}
