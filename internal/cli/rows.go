package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tablesync/internal/sqlite"
	"github.com/mesh-intelligence/tablesync/pkg/types"
)

func newRowsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rows",
		Short: "Read and write table rows",
		Long: `Read and write table rows as the caller given by --user and --group.
Writes take --etag, the data etag the change is based on; omit it only for a
table that has never held rows.`,
	}
	cmd.AddCommand(
		newRowsPutCmd(flags),
		newRowsGetCmd(flags),
		newRowsListCmd(flags),
		newRowsSinceCmd(flags),
		newRowsDeleteCmd(flags),
	)
	return cmd
}

func printChange(cmd *cobra.Command, flags *rootFlags, verb string, change *types.RowChange) error {
	return output(cmd, flags, change, func(w io.Writer) {
		fmt.Fprintf(w, "%s %d row(s); data etag %s\n", verb, len(change.Rows), change.DataETag)
	})
}

func newRowsPutCmd(flags *rootFlags) *cobra.Command {
	var (
		etag   string
		file   string
		rowID  string
		values []string
	)
	cmd := &cobra.Command{
		Use:   "put <tableId>",
		Short: "Insert or update rows",
		Long: `Insert or update one row given by --id and --set, or every row of a JSONL
file given by -f.

Example:
  tablesync rows put visits --user alice --etag <etag> --id r1 --set name=Ann --set age=31`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows []types.Row
			if file != "" {
				loaded, err := sqlite.ReadRowsFile(file)
				if err != nil {
					return fmt.Errorf("%w: %w", types.ErrInvalidArgument, err)
				}
				for _, r := range loaded {
					rows = append(rows, types.Row{RowID: r.RowID, Values: r.Values, FilterScope: r.FilterScope})
				}
			}
			if len(values) > 0 || rowID != "" {
				vals, err := parseValues(values)
				if err != nil {
					return fmt.Errorf("%w: %w", types.ErrInvalidArgument, err)
				}
				rows = append(rows, types.Row{RowID: rowID, Values: vals})
			}
			return withSession(cmd, flags, func(s *session) error {
				change, err := s.dataManager().InsertOrUpdateRows(flags.caller(), args[0], optionalETag(etag), rows)
				if err != nil {
					return err
				}
				return printChange(cmd, flags, "wrote", change)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&etag, "etag", "", "data etag the write is based on")
	f.StringVarP(&file, "file", "f", "", "JSONL file of rows")
	f.StringVar(&rowID, "id", "", "row id (default: generated)")
	f.StringArrayVar(&values, "set", nil, "column value as name=value (repeatable)")
	return cmd
}

func newRowsGetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <tableId> <rowId>",
		Short: "Show one row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *session) error {
				row, err := s.dataManager().GetRow(flags.caller(), args[0], args[1])
				if err != nil {
					return err
				}
				return output(cmd, flags, row, func(w io.Writer) {
					renderRows(w, []*types.Row{row})
				})
			})
		},
	}
}

func newRowsListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list <tableId>",
		Short: "List the live rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *session) error {
				rows, err := s.dataManager().GetRows(flags.caller(), args[0])
				if err != nil {
					return err
				}
				return output(cmd, flags, rows, func(w io.Writer) {
					renderRows(w, rows)
				})
			})
		},
	}
}

func newRowsSinceCmd(flags *rootFlags) *cobra.Command {
	var etag string
	cmd := &cobra.Command{
		Use:   "since <tableId>",
		Short: "List rows changed after a data etag",
		Long: `List rows, deletions included, changed after the write that produced
--etag. Without --etag every row is listed. An etag the table never issued
fails: the client must resync from scratch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *session) error {
				change, err := s.dataManager().GetRowsSince(flags.caller(), args[0], optionalETag(etag))
				if err != nil {
					return err
				}
				return output(cmd, flags, change, func(w io.Writer) {
					renderRows(w, change.Rows)
					fmt.Fprintf(w, "data etag %s\n", change.DataETag)
				})
			})
		},
	}
	cmd.Flags().StringVar(&etag, "etag", "", "data etag to list changes after")
	return cmd
}

func newRowsDeleteCmd(flags *rootFlags) *cobra.Command {
	var etag string
	cmd := &cobra.Command{
		Use:   "delete <tableId> <rowId>...",
		Short: "Delete rows",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *session) error {
				change, err := s.dataManager().DeleteRows(flags.caller(), args[0], optionalETag(etag), args[1:])
				if err != nil {
					return err
				}
				return printChange(cmd, flags, "deleted", change)
			})
		},
	}
	cmd.Flags().StringVar(&etag, "etag", "", "data etag the delete is based on")
	return cmd
}
