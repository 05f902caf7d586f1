// replicasync trains a model replica and keeps it synchronized with the
// other peers of its group.
package main

import (
	"os"

	"github.com/replicasync/replicasync/cmd"
	"github.com/replicasync/replicasync/node"
)

var (
	version string
	commit  string
	branch  string
)

func main() { // run the app
	cmd.Version = version
	cmd.Commit = commit
	cmd.Branch = branch
	if err := node.GetCommand().Execute(); err != nil {
		// Do not print error as cmd.SilenceErrors is false
		// and the error was already printed
		os.Exit(1)
	}
}
