package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tablesync/pkg/types"
)

func newAclCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "acl",
		Short: "Manage table access control",
		Long: `Manage the access control list of a table. Scopes are written DEFAULT,
USER:<id> or GROUP:<id>; roles are NONE, READER, WRITER or OWNER.`,
	}
	cmd.AddCommand(
		newAclSetCmd(flags),
		newAclGetCmd(flags),
		newAclRemoveCmd(flags),
		newAclListCmd(flags),
		newAclEffectiveCmd(flags),
	)
	return cmd
}

// aclAction opens a session, checks the caller's role and hands the table's
// ACL manager to fn.
func aclAction(cmd *cobra.Command, flags *rootFlags, tableID string, required types.TableRole, fn func(am aclManager) error) error {
	return withSession(cmd, flags, func(s *session) error {
		am, err := s.acl(tableID)
		if err != nil {
			return err
		}
		if err := s.requireRole(tableID, required); err != nil {
			return err
		}
		return fn(am)
	})
}

// aclManager is the part of tables.AclManager the commands use.
type aclManager interface {
	SetAcl(scope types.Scope, role types.TableRole) error
	GetAcl(scope types.Scope) (types.TableRole, error)
	RemoveAcl(scope types.Scope) error
	GetAcls() ([]types.AclEntry, error)
	EffectiveRole(scopes []types.Scope) (types.TableRole, error)
}

func newAclSetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set <tableId> <scope> <role>",
		Short: "Grant a role to a scope",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := types.ParseScope(args[1])
			if err != nil {
				return err
			}
			role, err := types.ParseTableRole(args[2])
			if err != nil {
				return err
			}
			return aclAction(cmd, flags, args[0], types.RoleOwner, func(am aclManager) error {
				if err := am.SetAcl(scope, role); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s on %s: %s\n", scope, args[0], role)
				return nil
			})
		},
	}
}

func newAclGetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <tableId> <scope>",
		Short: "Show the role granted to exactly one scope",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := types.ParseScope(args[1])
			if err != nil {
				return err
			}
			return aclAction(cmd, flags, args[0], types.RoleReader, func(am aclManager) error {
				role, err := am.GetAcl(scope)
				if err != nil {
					return err
				}
				entry := types.AclEntry{TableID: args[0], Scope: scope, Role: role}
				return output(cmd, flags, entry, func(w io.Writer) {
					fmt.Fprintln(w, role)
				})
			})
		},
	}
}

func newAclRemoveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <tableId> <scope>",
		Short: "Remove the grant of a scope",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := types.ParseScope(args[1])
			if err != nil {
				return err
			}
			return aclAction(cmd, flags, args[0], types.RoleOwner, func(am aclManager) error {
				if err := am.RemoveAcl(scope); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s from %s\n", scope, args[0])
				return nil
			})
		},
	}
}

func newAclListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list <tableId>",
		Short: "List every grant on a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return aclAction(cmd, flags, args[0], types.RoleReader, func(am aclManager) error {
				entries, err := am.GetAcls()
				if err != nil {
					return err
				}
				return output(cmd, flags, entries, func(w io.Writer) {
					renderAcl(w, entries)
				})
			})
		},
	}
}

func newAclEffectiveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "effective <tableId>",
		Short: "Show the caller's effective role",
		Long:  "Show the highest role the caller (--user, --group) holds, counting DEFAULT grants.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return aclAction(cmd, flags, args[0], types.RoleNone, func(am aclManager) error {
				role, err := am.EffectiveRole(flags.caller().Scopes())
				if err != nil {
					return err
				}
				return output(cmd, flags, map[string]string{"table_id": args[0], "role": role.String()}, func(w io.Writer) {
					fmt.Fprintln(w, role)
				})
			})
		},
	}
}
