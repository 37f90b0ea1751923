package types

import (
	"errors"
	"testing"
)

func TestValidateColumns(t *testing.T) {
	tests := []struct {
		name    string
		columns []Column
		wantErr bool
	}{
		{"empty set", nil, false},
		{"valid", []Column{{Name: "a", Type: ColumnString}, {Name: "b", Type: ColumnInteger}}, false},
		{"empty name", []Column{{Name: " ", Type: ColumnString}}, true},
		{"duplicate", []Column{{Name: "a", Type: ColumnString}, {Name: "a", Type: ColumnNumber}}, true},
		{"unknown type", []Column{{Name: "a", Type: "BLOB"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColumns(tt.columns)
			if tt.wantErr != (err != nil) {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
			if err != nil && !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestOrderedAssignsOrdinals(t *testing.T) {
	cols := Ordered([]Column{{Name: " x ", Ordinal: 7}, {Name: "y", Ordinal: 3}})
	if cols[0].Ordinal != 0 || cols[1].Ordinal != 1 {
		t.Fatalf("unexpected ordinals %+v", cols)
	}
	if cols[0].Name != "x" {
		t.Fatalf("expected trimmed name, got %q", cols[0].Name)
	}
}

func TestColumnTypeCheckValue(t *testing.T) {
	tests := []struct {
		typ     ColumnType
		value   string
		wantErr bool
	}{
		{ColumnString, "anything", false},
		{ColumnInteger, "42", false},
		{ColumnInteger, "4.2", true},
		{ColumnNumber, "4.2", false},
		{ColumnNumber, "four", true},
		{ColumnBoolean, "true", false},
		{ColumnBoolean, "yes", true},
		{ColumnDateTime, "2024-05-01T10:00:00Z", false},
		{ColumnDateTime, "yesterday", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ)+"/"+tt.value, func(t *testing.T) {
			err := tt.typ.CheckValue(tt.value)
			if tt.wantErr != (err != nil) {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateKVS(t *testing.T) {
	ok := []KeyValueStoreEntry{
		{Partition: "Table", Aspect: "default", Key: "displayName", Value: "Plots"},
		{Partition: "Column", Aspect: "height", Key: "units", Value: "m"},
	}
	if err := ValidateKVS(ok); err != nil {
		t.Fatalf("expected valid entries, got %v", err)
	}
	dup := append(ok, KeyValueStoreEntry{Partition: "Table", Aspect: "default", Key: "displayName"})
	if err := ValidateKVS(dup); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for duplicate, got %v", err)
	}
	if err := ValidateKVS([]KeyValueStoreEntry{{Partition: "Table"}}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for missing key, got %v", err)
	}
}

func TestTableEntryEqual(t *testing.T) {
	d1, d2 := "d1", "d1"
	a := &TableEntry{TableID: "t", SchemaETag: "s", DataETag: &d1}
	b := &TableEntry{TableID: "t", SchemaETag: "s", DataETag: &d2}
	if !a.Equal(b) {
		t.Fatal("entries with equal etag values should be equal")
	}
	b.DataETag = nil
	if a.Equal(b) {
		t.Fatal("nil data etag must differ from a set one")
	}
	a.DataETag = nil
	if !a.Equal(b) {
		t.Fatal("two nil data etags are equal")
	}
}
