package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	quiet      bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "xfs-undelete",
	Short: "Offline XFS deleted-file recovery",
	Long: `xfs-undelete scans a raw XFS device or image for deleted inodes and
reconstructs whatever directories and files it can from whatever the
delete operation left behind, without mounting the filesystem or
touching it for anything but reads.

Commands:
  recover   Scan a device and recover deleted files into a target directory
  inspect   Dump a single allocation group's superblock for diagnostics`,
	Version: "0.1.0-dev",
}

// Execute runs the root command (child commands register themselves in
// their own init functions), printing any error to stderr and exiting
// with status 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose (debug) logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all but error logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file overriding defaults")
}
