package cli

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/tablesync/pkg/types"
)

// parseColumn parses NAME:TYPE, with a trailing "?" marking the column
// nullable (age:INTEGER?).
func parseColumn(s string) (types.Column, error) {
	name, typ, ok := strings.Cut(s, ":")
	if !ok || name == "" {
		return types.Column{}, fmt.Errorf("invalid column %q (expected name:TYPE)", s)
	}
	col := types.Column{Name: name}
	if strings.HasSuffix(typ, "?") {
		col.Nullable = true
		typ = strings.TrimSuffix(typ, "?")
	}
	col.Type = types.ColumnType(strings.ToUpper(typ))
	if !col.Type.Valid() {
		return types.Column{}, fmt.Errorf("invalid column %q: unknown type %q", s, typ)
	}
	return col, nil
}

func parseColumns(specs []string) ([]types.Column, error) {
	cols := make([]types.Column, 0, len(specs))
	for _, s := range specs {
		c, err := parseColumn(s)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// parseGrant parses SCOPE=ROLE (USER:alice=WRITER, DEFAULT=READER).
func parseGrant(s string) (types.AclEntry, error) {
	scopeStr, roleStr, ok := strings.Cut(s, "=")
	if !ok {
		return types.AclEntry{}, fmt.Errorf("invalid grant %q (expected SCOPE=ROLE)", s)
	}
	scope, err := types.ParseScope(scopeStr)
	if err != nil {
		return types.AclEntry{}, err
	}
	role, err := types.ParseTableRole(roleStr)
	if err != nil {
		return types.AclEntry{}, err
	}
	return types.AclEntry{Scope: scope, Role: role}, nil
}

// parseValues parses name=value pairs into a row value map.
func parseValues(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid value %q (expected name=value)", p)
		}
		values[name] = value
	}
	return values, nil
}

// parseProperty parses PARTITION/ASPECT/KEY=VALUE into a string-typed entry.
func parseProperty(s string) (types.KeyValueStoreEntry, error) {
	path, value, ok := strings.Cut(s, "=")
	parts := strings.Split(path, "/")
	if !ok || len(parts) != 3 {
		return types.KeyValueStoreEntry{}, fmt.Errorf("invalid property %q (expected partition/aspect/key=value)", s)
	}
	return types.KeyValueStoreEntry{
		Partition: parts[0],
		Aspect:    parts[1],
		Key:       parts[2],
		Type:      "string",
		Value:     value,
	}, nil
}

// readYAML decodes a YAML file into v.
func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// optionalETag turns an empty flag value into a nil etag.
func optionalETag(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
