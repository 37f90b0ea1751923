package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tablesync/pkg/types"
)

func TestParseColumn(t *testing.T) {
	tests := []struct {
		in      string
		want    types.Column
		wantErr bool
	}{
		{in: "name:STRING", want: types.Column{Name: "name", Type: types.ColumnString}},
		{in: "age:integer?", want: types.Column{Name: "age", Type: types.ColumnInteger, Nullable: true}},
		{in: "when:DATETIME", want: types.Column{Name: "when", Type: types.ColumnDateTime}},
		{in: "name", wantErr: true},
		{in: ":STRING", wantErr: true},
		{in: "x:BLOB", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseColumn(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseGrant(t *testing.T) {
	g, err := parseGrant("USER:alice=writer")
	require.NoError(t, err)
	assert.Equal(t, types.UserScope("alice"), g.Scope)
	assert.Equal(t, types.RoleWriter, g.Role)

	g, err = parseGrant("DEFAULT=READER")
	require.NoError(t, err)
	assert.Equal(t, types.DefaultScope, g.Scope)

	for _, bad := range []string{"USER:alice", "USER:=READER", "DEFAULT=ADMIN", "ROBOT:x=READER"} {
		_, err := parseGrant(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseValues(t *testing.T) {
	v, err := parseValues([]string{"name=Ann", "note=a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Ann", "note": "a=b", "empty": ""}, v)

	_, err = parseValues([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseValues([]string{"=x"})
	assert.Error(t, err)
}

func TestParseProperty(t *testing.T) {
	p, err := parseProperty("Column/age/width=40")
	require.NoError(t, err)
	assert.Equal(t, types.KeyValueStoreEntry{
		Partition: "Column", Aspect: "age", Key: "width", Type: "string", Value: "40",
	}, p)

	_, err = parseProperty("Column/age=40")
	assert.Error(t, err)
}

func TestOptionalETag(t *testing.T) {
	assert.Nil(t, optionalETag(""))
	require.NotNil(t, optionalETag("e1"))
	assert.Equal(t, "e1", *optionalETag("e1"))
}
