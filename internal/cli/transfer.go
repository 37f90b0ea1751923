package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tablesync/internal/sqlite"
	"github.com/mesh-intelligence/tablesync/pkg/types"
)

func newExportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export <tableId> <file>",
		Short: "Write every row of a table to a JSONL file",
		Long: `Write every row of a table, deletions included, to a JSONL file. The file
is replaced atomically.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *session) error {
				change, err := s.dataManager().GetRowsSince(flags.caller(), args[0], nil)
				if err != nil {
					return err
				}
				if err := sqlite.WriteRowsFile(args[1], change.Rows); err != nil {
					return sysErr("export %s: %w", args[0], err)
				}
				s.logger.Info("rows exported", "table_id", args[0], "rows", len(change.Rows), "file", args[1])
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d row(s) of %s at data etag %s\n",
					len(change.Rows), args[0], change.DataETag)
				return nil
			})
		},
	}
}

func newImportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <tableId> <file>",
		Short: "Write the live rows of a JSONL file into a table",
		Long: `Write the live rows of a JSONL file, such as one produced by export, into a
table as one write against its current data etag. Deleted rows in the file
are skipped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := sqlite.ReadRowsFile(args[1])
			if err != nil {
				return fmt.Errorf("%w: %w", types.ErrInvalidArgument, err)
			}
			rows := make([]types.Row, 0, len(loaded))
			for _, r := range loaded {
				if r.Deleted {
					continue
				}
				rows = append(rows, types.Row{RowID: r.RowID, Values: r.Values, FilterScope: r.FilterScope})
			}
			if len(rows) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "nothing to import from %s\n", args[1])
				return nil
			}
			return withSession(cmd, flags, func(s *session) error {
				entry, err := s.tableManager().GetTableNullSafe(args[0])
				if err != nil {
					return err
				}
				change, err := s.dataManager().InsertOrUpdateRows(flags.caller(), args[0], entry.DataETag, rows)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d row(s) into %s; data etag %s\n",
					len(change.Rows), args[0], change.DataETag)
				return nil
			})
		},
	}
}
