// This program is a command line client for a running node.
package main

import "github.com/ardanlabs/autochain/app/tooling/cli/cmd"

func main() {
	cmd.Execute()
}
