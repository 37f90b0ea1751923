package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tablesync/pkg/types"
)

// printJSON writes v as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// renderTable writes a left-aligned text table.
func renderTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}

// output prints v as JSON in --json mode and calls text otherwise.
func output(cmd *cobra.Command, flags *rootFlags, v any, text func(w io.Writer)) error {
	if flags.jsonMode {
		return printJSON(cmd, v)
	}
	text(cmd.OutOrStdout())
	return nil
}

func etagString(etag *string) string {
	if etag == nil {
		return "-"
	}
	return *etag
}

func renderEntries(w io.Writer, entries []*types.TableEntry) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.TableID, e.TableKey, e.TableType, e.SchemaETag, etagString(e.DataETag)})
	}
	renderTable(w, []string{"Table", "Key", "Type", "Schema ETag", "Data ETag"}, rows)
}

func renderAcl(w io.Writer, entries []types.AclEntry) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Scope.String(), e.Role.String()})
	}
	renderTable(w, []string{"Scope", "Role"}, rows)
}

func renderColumns(w io.Writer, cols []types.Column) {
	rows := make([][]string, 0, len(cols))
	for _, c := range cols {
		rows = append(rows, []string{fmt.Sprint(c.Ordinal), c.Name, string(c.Type), fmt.Sprint(c.Nullable)})
	}
	renderTable(w, []string{"#", "Name", "Type", "Nullable"}, rows)
}

func renderKVS(w io.Writer, entries []types.KeyValueStoreEntry) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Partition, e.Aspect, e.Key, e.Type, e.Value})
	}
	renderTable(w, []string{"Partition", "Aspect", "Key", "Type", "Value"}, rows)
}

// renderRows prints one line per row with its values as name=value pairs.
func renderRows(w io.Writer, rows []*types.Row) {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		names := make([]string, 0, len(r.Values))
		for name := range r.Values {
			names = append(names, name)
		}
		sort.Strings(names)
		pairs := make([]string, len(names))
		for i, name := range names {
			pairs[i] = name + "=" + r.Values[name]
		}
		state := "live"
		if r.Deleted {
			state = "deleted"
		}
		out = append(out, []string{r.RowID, state, r.LastUpdateUser, strings.Join(pairs, " ")})
	}
	renderTable(w, []string{"Row", "State", "Updated By", "Values"}, out)
}
