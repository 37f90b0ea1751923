package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tablesync/internal/logging"
	"github.com/mesh-intelligence/tablesync/pkg/sqlite"
	"github.com/mesh-intelligence/tablesync/pkg/tables"
	"github.com/mesh-intelligence/tablesync/pkg/types"
)

// session is one attached store plus the managers built over it. Commands
// open a session, do their work and close it.
type session struct {
	flags    *rootFlags
	store    sqlite.Store
	logger   *slog.Logger
	opts     []tables.Option
	closeLog func()
}

func openSession(cmd *cobra.Command, flags *rootFlags) (*session, error) {
	st, err := resolveSettings(flags)
	if err != nil {
		return nil, &systemError{err: err}
	}
	logger, closeLog, err := logging.Setup(logging.Options{
		Level:  st.logLevel,
		SeqURL: st.seqURL,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, sysErr("logging: %w", err)
	}

	store := sqlite.NewBackend()
	if err := store.Attach(st.config); err != nil {
		closeLog()
		return nil, sysErr("attach store: %w", err)
	}
	logger.Debug("store attached", "data_dir", st.config.DataDir)

	return &session{
		flags:    flags,
		store:    store,
		logger:   logger,
		opts:     []tables.Option{tables.WithLogger(logger), tables.WithLockTimeout(st.config.GetLockTimeout())},
		closeLog: closeLog,
	}, nil
}

// Close detaches the store and flushes the logger.
func (s *session) Close() error {
	err := s.store.Detach()
	s.closeLog()
	return err
}

func (s *session) tableManager() *tables.TableManager { return tables.NewTableManager(s.store, s.opts...) }
func (s *session) dataManager() *tables.DataManager { return tables.NewDataManager(s.store, s.opts...) }
func (s *session) schemaManager() *tables.SchemaManager { return tables.NewSchemaManager(s.store, s.opts...) }

func (s *session) acl(tableID string) (*tables.AclManager, error) {
	return tables.NewAclManager(s.store, tableID, s.opts...)
}

// requireRole checks that the caller holds required on tableID. The local
// operator (no --user and no --group) is not checked.
func (s *session) requireRole(tableID string, required types.TableRole) error {
	if s.flags.anonymous() {
		return nil
	}
	am, err := s.acl(tableID)
	if err != nil {
		return err
	}
	return am.CheckRole(s.flags.caller(), required)
}

// withSession opens a session, runs fn and closes the session.
func withSession(cmd *cobra.Command, flags *rootFlags, fn func(s *session) error) (err error) {
	s, err := openSession(cmd, flags)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = sysErr("detach store: %w", cerr)
		}
	}()
	return fn(s)
}
