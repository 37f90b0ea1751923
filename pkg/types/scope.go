package types

import (
	"fmt"
	"strings"
)

// ScopeType identifies the kind of principal a Scope describes.
type ScopeType int

// Scope types. The zero value is not a valid scope type.
const (
	ScopeDefault ScopeType = iota + 1
	ScopeUser
	ScopeGroup
)

// String returns the canonical upper-case name of the scope type.
func (t ScopeType) String() string {
	switch t {
	case ScopeDefault:
		return "DEFAULT"
	case ScopeUser:
		return "USER"
	case ScopeGroup:
		return "GROUP"
	}
	panic(fmt.Sprintf("unknown scope type %d", int(t)))
}

// Valid reports whether t is one of the defined scope types.
func (t ScopeType) Valid() bool {
	switch t {
	case ScopeDefault, ScopeUser, ScopeGroup:
		return true
	}
	return false
}

// ParseScopeType parses DEFAULT, USER or GROUP (case-insensitive).
func ParseScopeType(s string) (ScopeType, error) {
	switch strings.ToUpper(s) {
	case "DEFAULT":
		return ScopeDefault, nil
	case "USER":
		return ScopeUser, nil
	case "GROUP":
		return ScopeGroup, nil
	}
	return 0, fmt.Errorf("%w: unknown scope type %q", ErrInvalidArgument, s)
}

// Scope identifies an access-control principal. DEFAULT scopes carry an
// empty Value; USER and GROUP scopes carry the principal identifier.
// Two scopes are equal iff Type and Value are equal, so Scope can be used
// as a map key.
type Scope struct {
	Type  ScopeType `json:"type" yaml:"type"`
	Value string    `json:"value,omitempty" yaml:"value,omitempty"`
}

// DefaultScope is the scope every caller implicitly holds.
var DefaultScope = Scope{Type: ScopeDefault}

// UserScope returns the USER scope for the given user id.
func UserScope(user string) Scope {
	return Scope{Type: ScopeUser, Value: user}
}

// GroupScope returns the GROUP scope for the given group id.
func GroupScope(group string) Scope {
	return Scope{Type: ScopeGroup, Value: group}
}

// Validate returns ErrInvalidArgument when the type is unknown, when a
// DEFAULT scope carries a value, or when a USER/GROUP scope has none.
func (s Scope) Validate() error {
	switch s.Type {
	case ScopeDefault:
		if s.Value != "" {
			return fmt.Errorf("%w: DEFAULT scope must not carry a value", ErrInvalidArgument)
		}
		return nil
	case ScopeUser, ScopeGroup:
		if s.Value == "" {
			return fmt.Errorf("%w: %s scope requires a value", ErrInvalidArgument, s.Type)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown scope type %d", ErrInvalidArgument, int(s.Type))
}

// String formats the scope as DEFAULT, USER:<id> or GROUP:<id>.
func (s Scope) String() string {
	if s.Type == ScopeDefault {
		return "DEFAULT"
	}
	return s.Type.String() + ":" + s.Value
}

// ParseScope parses the String form of a scope.
func ParseScope(s string) (Scope, error) {
	typ, value, _ := strings.Cut(s, ":")
	st, err := ParseScopeType(typ)
	if err != nil {
		return Scope{}, err
	}
	scope := Scope{Type: st, Value: value}
	if err := scope.Validate(); err != nil {
		return Scope{}, err
	}
	return scope, nil
}

// Caller is the identity a request runs as: one user and the groups it
// belongs to. The DEFAULT scope is implicit and not listed.
type Caller struct {
	User   string
	Groups []string
}

// Scopes returns the USER and GROUP scopes of the caller.
func (c Caller) Scopes() []Scope {
	scopes := make([]Scope, 0, len(c.Groups)+1)
	if c.User != "" {
		scopes = append(scopes, UserScope(c.User))
	}
	for _, g := range c.Groups {
		if g != "" {
			scopes = append(scopes, GroupScope(g))
		}
	}
	return scopes
}

// MarshalText encodes the scope type by name.
func (t ScopeType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown scope type %d", ErrInvalidArgument, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a scope type name.
func (t *ScopeType) UnmarshalText(text []byte) error {
	st, err := ParseScopeType(string(text))
	if err != nil {
		return err
	}
	*t = st
	return nil
}
