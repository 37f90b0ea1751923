// Package cli implements the tablesync command-line interface: a local
// request layer over the table managers.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tablesync/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	user      string
	groups    []string
}

// caller is the identity requests run as.
func (f *rootFlags) caller() types.Caller {
	return types.Caller{User: f.user, Groups: f.groups}
}

// anonymous reports whether no identity was given. Structural commands
// run unchecked for the local operator in that case.
func (f *rootFlags) anonymous() bool {
	return f.user == "" && len(f.groups) == 0
}

// NewRootCmd creates the top-level "tablesync" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "tablesync",
		Short: "Synchronized tables with optimistic concurrency",
		Long: "tablesync manages synchronized tables: their schema, access control and rows.\n" +
			"Writes name the etag they were based on and fail if the table moved on.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .tablesync-db)")
	pf.BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	pf.StringVar(&flags.user, "user", "", "user id requests run as")
	pf.StringSliceVar(&flags.groups, "group", nil, "group the user belongs to (repeatable)")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(flags),
		newTableCmd(flags),
		newAclCmd(flags),
		newRowsCmd(flags),
		newSchemaCmd(flags),
		newExportCmd(flags),
		newImportCmd(flags),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// systemError marks failures of the environment (config, storage) rather
// than of the request.
type systemError struct {
	err error
}

func (e *systemError) Error() string { return e.err.Error() }
func (e *systemError) Unwrap() error { return e.err }

func sysErr(format string, args ...any) error {
	return &systemError{err: fmt.Errorf(format, args...)}
}

// exitCode maps an error to the process exit code: 2 for conditions a
// retry may clear, 1 for everything the caller must fix.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se *systemError
	if errors.As(err, &se) {
		return exitSysError
	}
	switch types.KindOf(err) {
	case types.KindLockTimeout, types.KindStoreUnavailable:
		return exitSysError
	default:
		return exitUserError
	}
}
