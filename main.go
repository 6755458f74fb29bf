package main

import "github.com/deploymenttheory/xfs-undelete/cmd"

func main() {
	cmd.Execute()
}
