// Command bridgectl invokes bridge capabilities from the command line.
//
// Usage:
//
//	bridgectl channels
//	bridgectl call getFileList --data '{"path":"docs"}'
//	bridgectl call unzip --local --root ./data --data '{"zipFilePath":"a.zip","targetPath":"a"}'
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/GriffinCanCode/webcontainer/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	var exitErr *cli.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// flag and argument errors are not reported by the commands
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
