package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tablesync/pkg/types"
)

func newTableCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Create, inspect, list and delete tables",
	}
	cmd.AddCommand(
		newTableCreateCmd(flags),
		newTableGetCmd(flags),
		newTableListCmd(flags),
		newTableDeleteCmd(flags),
	)
	return cmd
}

func newTableCreateCmd(flags *rootFlags) *cobra.Command {
	var (
		file    string
		def     types.TableDefinition
		columns []string
		grants  []string
	)
	cmd := &cobra.Command{
		Use:   "create [tableId]",
		Short: "Create a table",
		Long: `Create a table from a YAML definition file, from flags, or both. Flags
override the file. A caller given with --user becomes OWNER unless the
definition already grants that user a role.

Example:
  tablesync table create visits --column name:STRING --column age:INTEGER? --acl DEFAULT=READER
  tablesync table create -f visits.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var base types.TableDefinition
			if file != "" {
				if err := readYAML(file, &base); err != nil {
					return fmt.Errorf("%w: %w", types.ErrInvalidArgument, err)
				}
			}
			if len(args) == 1 {
				base.TableID = args[0]
			}
			if def.TableKey != "" {
				base.TableKey = def.TableKey
			}
			if def.DBTableName != "" {
				base.DBTableName = def.DBTableName
			}
			if def.TableType != "" {
				base.TableType = def.TableType
			}
			if base.TableKey == "" {
				base.TableKey = base.TableID
			}
			if base.DBTableName == "" {
				base.DBTableName = base.TableID
			}
			if base.TableType == "" {
				base.TableType = "DATA"
			}
			if len(columns) > 0 {
				cols, err := parseColumns(columns)
				if err != nil {
					return fmt.Errorf("%w: %w", types.ErrInvalidArgument, err)
				}
				base.Columns = cols
			}
			for _, g := range grants {
				a, err := parseGrant(g)
				if err != nil {
					return err
				}
				base.ACL = append(base.ACL, a)
			}
			if flags.user != "" && !grantsScope(base.ACL, types.UserScope(flags.user)) {
				base.ACL = append(base.ACL, types.AclEntry{Scope: types.UserScope(flags.user), Role: types.RoleOwner})
			}

			return withSession(cmd, flags, func(s *session) error {
				entry, err := s.tableManager().CreateTable(base)
				if err != nil {
					return err
				}
				return output(cmd, flags, entry, func(w io.Writer) {
					fmt.Fprintf(w, "created table %s (schema etag %s)\n", entry.TableID, entry.SchemaETag)
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "", "YAML table definition")
	f.StringVar(&def.TableKey, "key", "", "table key (default: table id)")
	f.StringVar(&def.DBTableName, "db-name", "", "database table name (default: table id)")
	f.StringVar(&def.TableType, "type", "", "table type (default: DATA)")
	f.StringArrayVar(&columns, "column", nil, "column as name:TYPE, name:TYPE? for nullable (repeatable)")
	f.StringArrayVar(&grants, "acl", nil, "initial grant as SCOPE=ROLE (repeatable)")
	return cmd
}

func grantsScope(acl []types.AclEntry, scope types.Scope) bool {
	for _, a := range acl {
		if a.Scope == scope {
			return true
		}
	}
	return false
}

func newTableGetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <tableId>",
		Short: "Show a table entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *session) error {
				if err := s.requireRole(args[0], types.RoleReader); err != nil {
					return err
				}
				entry, err := s.tableManager().GetTableNullSafe(args[0])
				if err != nil {
					return err
				}
				return output(cmd, flags, entry, func(w io.Writer) {
					renderEntries(w, []*types.TableEntry{entry})
				})
			})
		},
	}
}

func newTableListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tables visible to the caller",
		Long: `List tables. With --user or --group only tables on which the caller
(or the DEFAULT scope) holds at least READER are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *session) error {
				tm := s.tableManager()
				var (
					entries []*types.TableEntry
					err     error
				)
				if flags.anonymous() {
					entries, err = tm.GetTables()
				} else {
					entries, err = tm.GetTablesForScopes(flags.caller().Scopes())
				}
				if err != nil {
					return err
				}
				return output(cmd, flags, entries, func(w io.Writer) {
					renderEntries(w, entries)
				})
			})
		},
	}
}

func newTableDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <tableId>",
		Short: "Delete a table with its schema, ACL and rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *session) error {
				if err := s.requireRole(args[0], types.RoleOwner); err != nil {
					return err
				}
				if err := s.tableManager().DeleteTable(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted table %s\n", args[0])
				return nil
			})
		},
	}
}
