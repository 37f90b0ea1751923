// Command tablesync manages synchronized tables from the command line.
package main

import (
	"os"

	"github.com/mesh-intelligence/tablesync/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
