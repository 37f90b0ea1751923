package types

import (
	"errors"
	"testing"
)

func TestScopeParseAndString(t *testing.T) {
	tests := []struct {
		in   string
		want Scope
	}{
		{"DEFAULT", DefaultScope},
		{"default", DefaultScope},
		{"USER:alice", UserScope("alice")},
		{"group:field-team", GroupScope("field-team")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseScope(tt.in)
			if err != nil {
				t.Fatalf("ParseScope(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			back, err := ParseScope(got.String())
			if err != nil || back != got {
				t.Fatalf("String form %q did not parse back: %v", got.String(), err)
			}
		})
	}
}

func TestScopeValidate(t *testing.T) {
	tests := []struct {
		name    string
		scope   Scope
		wantErr bool
	}{
		{"default", DefaultScope, false},
		{"default with value", Scope{Type: ScopeDefault, Value: "x"}, true},
		{"user", UserScope("u"), false},
		{"user without value", Scope{Type: ScopeUser}, true},
		{"group without value", Scope{Type: ScopeGroup}, true},
		{"zero scope", Scope{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scope.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Fatalf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
		})
	}
}

func TestParseScopeRejectsUnknownType(t *testing.T) {
	if _, err := ParseScope("ROLE:admin"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := ParseScope("USER:"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for empty user, got %v", err)
	}
}

func TestScopeEquality(t *testing.T) {
	if UserScope("a") == GroupScope("a") {
		t.Fatal("scopes with different types must differ")
	}
	if UserScope("a") != UserScope("a") {
		t.Fatal("identical scopes must be equal")
	}
}

func TestCallerScopes(t *testing.T) {
	c := Caller{User: "alice", Groups: []string{"surveyors", "", "admins"}}
	got := c.Scopes()
	want := []Scope{UserScope("alice"), GroupScope("surveyors"), GroupScope("admins")}
	if len(got) != len(want) {
		t.Fatalf("expected %d scopes, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("scope %d: expected %v, got %v", i, want[i], got[i])
		}
	}

	if len((Caller{}).Scopes()) != 0 {
		t.Fatal("anonymous caller should have no explicit scopes")
	}
}

func TestScopeTypeText(t *testing.T) {
	b, err := ScopeGroup.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	var st ScopeType
	if err := st.UnmarshalText(b); err != nil {
		t.Fatal(err)
	}
	if st != ScopeGroup {
		t.Fatalf("expected GROUP, got %v", st)
	}
	if _, err := ScopeType(0).MarshalText(); err == nil {
		t.Fatal("expected error marshaling zero scope type")
	}
}
