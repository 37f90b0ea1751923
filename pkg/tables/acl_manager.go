package tables

import (
	"fmt"

	"github.com/mesh-intelligence/tablesync/pkg/types"
)

// AclManager edits and evaluates the access control list of one table.
// ACL changes do not alter the table's schema etag.
type AclManager struct {
	store   types.Store
	tableID string
	opts    options
}

// NewAclManager returns the ACL manager of tableID. It fails with NotFound
// if the table does not exist.
func NewAclManager(store types.Store, tableID string, opts ...Option) (*AclManager, error) {
	const op = "aclManager"
	o := buildOptions(opts)
	if tableID == "" {
		return nil, invalid(op, "", fmt.Errorf("table id is required"))
	}
	if _, err := store.GetTableEntry(tableID); err != nil {
		return nil, logFailure(o.logger, op, tableID, err)
	}
	return &AclManager{store: store, tableID: tableID, opts: o}, nil
}

// TableID returns the table this manager edits.
func (am *AclManager) TableID() string { return am.tableID }

// SetAcl grants role to scope, replacing any previous grant. Granting
// RoleNone stores an explicit entry.
func (am *AclManager) SetAcl(scope types.Scope, role types.TableRole) error {
	const op = "setAcl"
	if err := scope.Validate(); err != nil {
		return invalid(op, am.tableID, err)
	}
	if !role.Valid() {
		return invalid(op, am.tableID, fmt.Errorf("unknown role %d", int(role)))
	}
	err := am.store.Batch(func(tx types.StoreTx) error {
		if _, err := tx.GetTableEntry(am.tableID); err != nil {
			return err
		}
		return tx.PutAcl(types.AclEntry{TableID: am.tableID, Scope: scope, Role: role})
	})
	if err != nil {
		return logFailure(am.opts.logger, op, am.tableID, err)
	}
	am.opts.logger.Info("acl set", "table_id", am.tableID, "scope", scope.String(), "role", role.String())
	return nil
}

// GetAcl returns the role granted to exactly scope, or RoleNone.
func (am *AclManager) GetAcl(scope types.Scope) (types.TableRole, error) {
	const op = "getAcl"
	if err := scope.Validate(); err != nil {
		return types.RoleNone, invalid(op, am.tableID, err)
	}
	entries, err := am.store.ListAcl(am.tableID)
	if err != nil {
		return types.RoleNone, logFailure(am.opts.logger, op, am.tableID, err)
	}
	for _, e := range entries {
		if e.Scope == scope {
			return e.Role, nil
		}
	}
	return types.RoleNone, nil
}

// RemoveAcl deletes the grant of scope. It fails with NotFound when there
// is none.
func (am *AclManager) RemoveAcl(scope types.Scope) error {
	const op = "removeAcl"
	if err := scope.Validate(); err != nil {
		return invalid(op, am.tableID, err)
	}
	err := am.store.Batch(func(tx types.StoreTx) error {
		return tx.DeleteAcl(am.tableID, scope)
	})
	if err != nil {
		return logFailure(am.opts.logger, op, am.tableID, err)
	}
	am.opts.logger.Info("acl removed", "table_id", am.tableID, "scope", scope.String())
	return nil
}

// GetAcls returns every grant on the table.
func (am *AclManager) GetAcls() ([]types.AclEntry, error) {
	entries, err := am.store.ListAcl(am.tableID)
	if err != nil {
		return nil, logFailure(am.opts.logger, "getAcls", am.tableID, err)
	}
	if entries == nil {
		entries = []types.AclEntry{}
	}
	return entries, nil
}

// EffectiveRole returns the highest role granted to any of scopes or to the
// DEFAULT scope.
func (am *AclManager) EffectiveRole(scopes []types.Scope) (types.TableRole, error) {
	entries, err := am.store.ListAcl(am.tableID)
	if err != nil {
		return types.RoleNone, logFailure(am.opts.logger, "effectiveRole", am.tableID, err)
	}
	return ResolveRole(entries, scopes), nil
}

// CheckRole fails with PermissionDenied unless caller holds at least
// required on the table.
func (am *AclManager) CheckRole(caller types.Caller, required types.TableRole) error {
	role, err := am.EffectiveRole(caller.Scopes())
	if err != nil {
		return err
	}
	if !role.AtLeast(required) {
		return types.NewError(types.KindPermissionDenied, "checkRole", am.tableID,
			fmt.Errorf("%s holds %s, needs %s", callerName(caller), role, required))
	}
	return nil
}

// ResolveRole computes the effective role of scopes against entries: the
// maximum role over entries whose scope is DEFAULT or one of scopes.
func ResolveRole(entries []types.AclEntry, scopes []types.Scope) types.TableRole {
	held := make(map[types.Scope]bool, len(scopes)+1)
	held[types.DefaultScope] = true
	for _, s := range scopes {
		held[s] = true
	}
	role := types.RoleNone
	for _, e := range entries {
		if held[e.Scope] {
			role = types.MaxRole(role, e.Role)
		}
	}
	return role
}

func callerName(c types.Caller) string {
	if c.User == "" {
		return "anonymous caller"
	}
	return "user " + c.User
}
