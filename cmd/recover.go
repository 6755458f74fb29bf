package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/xfs-undelete/internal/collab"
	"github.com/deploymenttheory/xfs-undelete/internal/device"
	"github.com/deploymenttheory/xfs-undelete/internal/engine"
	"github.com/deploymenttheory/xfs-undelete/internal/pipeline"
	"github.com/deploymenttheory/xfs-undelete/pkg/app"
)

var (
	startBlock    uint64
	restoreXattrs bool
)

var recoverCmd = &cobra.Command{
	Use:   "recover <source-device> <target-directory>",
	Short: "Scan a device for deleted inodes and recover what can be reconstructed",
	Args:  cobra.ExactArgs(2),
	RunE:  runRecover,
}

func init() {
	recoverCmd.Flags().Uint64VarP(&startBlock, "start-block", "s", 0, "resume scanning at this absolute block number")
	recoverCmd.Flags().BoolVar(&restoreXattrs, "xattrs", true, "attempt extended-attribute restoration")
	rootCmd.AddCommand(recoverCmd)
}

func runRecover(cmd *cobra.Command, args []string) error {
	sourcePath, outDir := args[0], args[1]

	cfg, err := device.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if startBlock == 0 {
		startBlock = cfg.StartBlock
	}
	if !cmd.Flags().Changed("xattrs") {
		restoreXattrs = cfg.RestoreXattrs
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = verbose
	}
	if cmd.Flags().Changed("quiet") {
		cfg.Quiet = quiet
	}

	a := app.New(verbose || cfg.Verbose, quiet || cfg.Quiet)

	collaborators := collab.New()
	if err := collaborators.Paths.MkdirAll(outDir); err != nil {
		return err
	}

	probeSrc, err := device.Open(sourcePath)
	if err != nil {
		return err
	}
	geom, err := device.ProbeGeometry(probeSrc)
	probeSrc.Close()
	if err != nil {
		return fmt.Errorf("reading geometry superblock: %w", err)
	}

	sbSrc, err := device.Open(sourcePath)
	if err != nil {
		return err
	}
	superblocks, err := device.ScanSuperblocks(sbSrc, geom.AGCount, geom.AGSize, geom.BlockSize)
	sbSrc.Close()
	if err != nil {
		return fmt.Errorf("reading allocation group superblocks: %w", err)
	}

	if mi, err := collaborators.Mounts.Status(sourcePath); err == nil && mi.Mounted && !mi.ReadOnly {
		a.Log.WithField("mount", mi.MountPoint).Warn("source is mounted read-write; recovery reads a live, possibly-changing device")
		if err := collaborators.Remount.RemountReadOnly(mi.MountPoint); err != nil {
			a.Log.WithError(err).Warn("could not remount source read-only, continuing anyway")
		} else {
			defer func() {
				if err := collaborators.Remount.Restore(mi.MountPoint); err != nil {
					a.Log.WithError(err).Warn("could not restore original mount options")
				}
			}()
		}
	}

	ectx := engine.New(superblocks, startBlock, a.Log)

	gctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	sched := pipeline.NewScheduler(ectx, sourcePath, outDir, restoreXattrs, collaborators.Media)
	runErr := sched.Run(gctx)

	fmt.Fprintln(cmd.OutOrStdout(), ectx.Progress.Summary())
	return runErr
}
