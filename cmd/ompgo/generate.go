package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Rewrite marked files into the overlay cache",
		Long: `Scan the module tree for //ompgo: markers, rewrite every marked file
into the cache directory, and write an overlay.json mapping.

Build the transformed module with:

  go build -overlay .ompgo_cache/overlay.json ./...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := newEngine()
			if err := e.Run(); err != nil {
				return err
			}
			if len(e.Overlay.Replace) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no markers found")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(e.CacheDir, "overlay.json"))
			return nil
		},
	}
}
