package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "imagecluster",
	Short: "Group visually similar images for review",
	Long: `imagecluster fingerprints every image of a pending folder with a perceptual
hash and groups near-duplicates into clusters, so a reviewer can assign a
product to a whole cluster at once instead of to every file.

Clusters are written as CSV reports; the reviewed mapping template can then be
propagated onto a per-file mapping with the apply command.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(clusterCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.SetVersionTemplate(`{{printf "%s version %s" .Name .Version}}
`)
}

// Execute runs the command line and exits with status 1 on failure
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
