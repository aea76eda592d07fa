// Command mdindex indexes the Markdown documents of a workspace into SQLite
// and keeps the index current while files change.
package main

import (
	"os"

	"github.com/Aman-CERP/mdindex/cmd/mdindex/cmd"
)

func main() {
	os.Exit(cmd.ExitCode(cmd.Execute()))
}
