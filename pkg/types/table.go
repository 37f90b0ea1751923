package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TableEntry is the server-of-record description of one synchronized table.
// TableID, TableKey, DBTableName and TableType are immutable after creation.
type TableEntry struct {
	TableID     string  `json:"table_id" yaml:"table_id"`
	TableKey    string  `json:"table_key" yaml:"table_key"`
	DBTableName string  `json:"db_table_name" yaml:"db_table_name"`
	TableType   string  `json:"table_type" yaml:"table_type"`
	SchemaETag  string  `json:"schema_etag" yaml:"schema_etag"`
	DataETag    *string `json:"data_etag" yaml:"data_etag"`
}

// Equal reports whether every field of e and o matches, treating two nil
// data etags as equal.
func (e *TableEntry) Equal(o *TableEntry) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.TableID == o.TableID &&
		e.TableKey == o.TableKey &&
		e.DBTableName == o.DBTableName &&
		e.TableType == o.TableType &&
		e.SchemaETag == o.SchemaETag &&
		EtagEqual(e.DataETag, o.DataETag)
}

// EtagEqual compares two optional etags; nil only equals nil.
func EtagEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ColumnType is the closed set of column data types.
type ColumnType string

// Column types.
const (
	ColumnString   ColumnType = "STRING"
	ColumnInteger  ColumnType = "INTEGER"
	ColumnNumber   ColumnType = "NUMBER"
	ColumnBoolean  ColumnType = "BOOLEAN"
	ColumnDateTime ColumnType = "DATETIME"
)

// Valid reports whether t is a known column type.
func (t ColumnType) Valid() bool {
	switch t {
	case ColumnString, ColumnInteger, ColumnNumber, ColumnBoolean, ColumnDateTime:
		return true
	}
	return false
}

// CheckValue returns ErrInvalidArgument if v does not parse as t.
func (t ColumnType) CheckValue(v string) error {
	var err error
	switch t {
	case ColumnString:
	case ColumnInteger:
		_, err = strconv.ParseInt(v, 10, 64)
	case ColumnNumber:
		_, err = strconv.ParseFloat(v, 64)
	case ColumnBoolean:
		_, err = strconv.ParseBool(v)
	case ColumnDateTime:
		_, err = time.Parse(time.RFC3339, v)
	default:
		return fmt.Errorf("%w: unknown column type %q", ErrInvalidArgument, string(t))
	}
	if err != nil {
		return fmt.Errorf("%w: value %q is not a valid %s", ErrInvalidArgument, v, t)
	}
	return nil
}

// Column is one typed column definition. Ordinal is the zero-based position
// within the table and is assigned from slice order when persisted.
type Column struct {
	Name     string     `json:"name" yaml:"name"`
	Type     ColumnType `json:"type" yaml:"type"`
	Nullable bool       `json:"nullable" yaml:"nullable"`
	Ordinal  int        `json:"ordinal" yaml:"ordinal"`
}

// ValidateColumns checks names are non-empty and unique and types are known.
// An empty column set is allowed.
func ValidateColumns(columns []Column) error {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("%w: column name must not be empty", ErrInvalidArgument)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidArgument, name)
		}
		seen[name] = true
		if !c.Type.Valid() {
			return fmt.Errorf("%w: column %q has unknown type %q", ErrInvalidArgument, name, string(c.Type))
		}
	}
	return nil
}

// Ordered returns a copy of columns with Ordinal set to the slice position.
func Ordered(columns []Column) []Column {
	out := make([]Column, len(columns))
	for i, c := range columns {
		c.Name = strings.TrimSpace(c.Name)
		c.Ordinal = i
		out[i] = c
	}
	return out
}

// AclEntry grants Role to Scope on one table. At most one entry exists per
// (TableID, Scope).
type AclEntry struct {
	TableID string    `json:"table_id" yaml:"table_id"`
	Scope   Scope     `json:"scope" yaml:"scope"`
	Role    TableRole `json:"role" yaml:"role"`
}

// KeyValueStoreEntry is one loosely typed metadata value attached to a
// table. Partition/Aspect/Key is unique within a table; Aspect is commonly
// "default" for table-level properties or a column name.
type KeyValueStoreEntry struct {
	TableID   string `json:"table_id" yaml:"table_id"`
	Partition string `json:"partition" yaml:"partition"`
	Aspect    string `json:"aspect" yaml:"aspect"`
	Key       string `json:"key" yaml:"key"`
	Type      string `json:"type" yaml:"type"`
	Value     string `json:"value" yaml:"value"`
}

// ValidateKVS checks that every entry names a partition, aspect and key and
// that no 3-tuple repeats.
func ValidateKVS(entries []KeyValueStoreEntry) error {
	seen := make(map[[3]string]bool, len(entries))
	for _, e := range entries {
		if e.Partition == "" || e.Aspect == "" || e.Key == "" {
			return fmt.Errorf("%w: kvs entry needs partition, aspect and key", ErrInvalidArgument)
		}
		k := [3]string{e.Partition, e.Aspect, e.Key}
		if seen[k] {
			return fmt.Errorf("%w: duplicate kvs entry %s/%s/%s", ErrInvalidArgument, e.Partition, e.Aspect, e.Key)
		}
		seen[k] = true
	}
	return nil
}

// TableDefinition is everything needed to create a table.
type TableDefinition struct {
	TableID     string               `json:"table_id" yaml:"table_id"`
	TableKey    string               `json:"table_key" yaml:"table_key"`
	DBTableName string               `json:"db_table_name" yaml:"db_table_name"`
	TableType   string               `json:"table_type" yaml:"table_type"`
	ACL         []AclEntry           `json:"acl" yaml:"acl"`
	Columns     []Column             `json:"columns" yaml:"columns"`
	KVS         []KeyValueStoreEntry `json:"kvs" yaml:"kvs"`
}
