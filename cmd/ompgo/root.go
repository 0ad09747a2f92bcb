package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ompgo/ompgo/internal/rewrite"

	// Register every directive processor with the rewrite engine.
	_ "github.com/ompgo/ompgo/internal/rewrite/processors"
)

var (
	flagRoot    string
	flagAlias   string
	flagVerbose bool
)

// rootCmd is the base command for the ompgo tool: a thin front end over
// the rewrite engine's generate/release/clean entry points.
var rootCmd = &cobra.Command{
	Use:   "ompgo",
	Short: "OpenMP-style directive transformer for Go source",
	Long: `ompgo scans a module tree for //ompgo: directive markers, rewrites the
marked files into parallel scheduling code calling the ompgort runtime,
and publishes the result either as a go build -overlay mapping (generate)
or as permanent build-tagged sibling files (release).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", ".", "module root to scan for markers")
	rootCmd.PersistentFlags().StringVar(&flagAlias, "alias", "ompgo", "marker alias: directives are read from //<alias>: comments")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log each rewritten file at debug level")

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newReleaseCmd())
	rootCmd.AddCommand(newCleanCmd())
}

// newEngine builds an engine configured from the global flags.
func newEngine() *rewrite.Engine {
	e := rewrite.NewEngine(flagRoot)
	e.Alias = flagAlias
	log := logrus.New()
	if flagVerbose {
		log.SetLevel(logrus.DebugLevel)
	}
	e.Log = log.WithField("component", "rewrite")
	return e
}
