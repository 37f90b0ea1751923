package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tablesync/pkg/types"
)

func newSchemaCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Read and edit table columns and properties",
		Long: `Read and edit table columns and properties. Edits take --etag, the
schema etag they are based on, and print the new one.`,
	}
	cmd.AddCommand(
		newSchemaColumnsCmd(flags),
		newSchemaAlterCmd(flags),
		newSchemaPropsCmd(flags),
		newSchemaSetPropsCmd(flags),
	)
	return cmd
}

func newSchemaColumnsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "columns <tableId>",
		Short: "List the columns of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *session) error {
				if err := s.requireRole(args[0], types.RoleReader); err != nil {
					return err
				}
				cols, err := s.schemaManager().GetColumns(args[0])
				if err != nil {
					return err
				}
				return output(cmd, flags, cols, func(w io.Writer) {
					renderColumns(w, cols)
				})
			})
		},
	}
}

func newSchemaAlterCmd(flags *rootFlags) *cobra.Command {
	var (
		etag    string
		columns []string
	)
	cmd := &cobra.Command{
		Use:   "alter <tableId>",
		Short: "Replace the columns of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, err := parseColumns(columns)
			if err != nil {
				return fmt.Errorf("%w: %w", types.ErrInvalidArgument, err)
			}
			return withSession(cmd, flags, func(s *session) error {
				if err := s.requireRole(args[0], types.RoleOwner); err != nil {
					return err
				}
				entry, err := s.schemaManager().AlterColumns(args[0], etag, cols)
				if err != nil {
					return err
				}
				return output(cmd, flags, entry, func(w io.Writer) {
					fmt.Fprintf(w, "altered %s; schema etag %s\n", entry.TableID, entry.SchemaETag)
				})
			})
		},
	}
	cmd.Flags().StringVar(&etag, "etag", "", "schema etag the change is based on")
	cmd.Flags().StringArrayVar(&columns, "column", nil, "column as name:TYPE, name:TYPE? for nullable (repeatable)")
	return cmd
}

func newSchemaPropsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "props <tableId>",
		Short: "List the properties of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *session) error {
				if err := s.requireRole(args[0], types.RoleReader); err != nil {
					return err
				}
				kvs, err := s.schemaManager().GetProperties(args[0])
				if err != nil {
					return err
				}
				return output(cmd, flags, kvs, func(w io.Writer) {
					renderKVS(w, kvs)
				})
			})
		},
	}
}

func newSchemaSetPropsCmd(flags *rootFlags) *cobra.Command {
	var (
		etag  string
		file  string
		props []string
	)
	cmd := &cobra.Command{
		Use:   "set-props <tableId>",
		Short: "Replace the properties of a table",
		Long: `Replace the properties of a table with the entries of a YAML file (-f)
and/or --prop partition/aspect/key=value flags.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []types.KeyValueStoreEntry
			if file != "" {
				if err := readYAML(file, &entries); err != nil {
					return fmt.Errorf("%w: %w", types.ErrInvalidArgument, err)
				}
			}
			for _, p := range props {
				e, err := parseProperty(p)
				if err != nil {
					return fmt.Errorf("%w: %w", types.ErrInvalidArgument, err)
				}
				entries = append(entries, e)
			}
			return withSession(cmd, flags, func(s *session) error {
				if err := s.requireRole(args[0], types.RoleOwner); err != nil {
					return err
				}
				entry, err := s.schemaManager().SetProperties(args[0], etag, entries)
				if err != nil {
					return err
				}
				return output(cmd, flags, entry, func(w io.Writer) {
					fmt.Fprintf(w, "set %d propert(ies) on %s; schema etag %s\n", len(entries), entry.TableID, entry.SchemaETag)
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&etag, "etag", "", "schema etag the change is based on")
	f.StringVarP(&file, "file", "f", "", "YAML list of key-value entries")
	f.StringArrayVar(&props, "prop", nil, "property as partition/aspect/key=value (repeatable)")
	return cmd
}
