package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ompgo/ompgo/internal/rewrite"
)

func newReleaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release",
		Short: "Write transformed files permanently alongside their originals",
		Long: `Run the transform and write each rewritten file as a permanent
<name>_ompgo.go sibling tagged //go:build ompgo, stamping the original
with //go:build !ompgo so a plain go build -tags ompgo picks up the
released files without any overlay.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			e := newEngine()
			if err := e.Run(); err != nil {
				return err
			}
			return e.Release()
		},
	}
}

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove released files and the overlay cache",
		Long: `Delete every released _ompgo.go sibling under the root, strip the
//go:build !ompgo tag from the corresponding originals, and remove the
overlay cache directory.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := rewrite.ReleaseClean(flagRoot); err != nil {
				return err
			}
			return os.RemoveAll(newEngine().CacheDir)
		},
	}
}
