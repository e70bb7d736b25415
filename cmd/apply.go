package cmd

import (
	"os"

	"imagecluster/mapping"
	"imagecluster/utils"

	"github.com/spf13/cobra"
)

var applyOpts = mapping.DefaultOptions(utils.DefaultReportDir)

var applyCmd = &cobra.Command{
	Use:   "apply [flags]",
	Short: "Propagate reviewed cluster mappings onto the per-file mapping",
	Long: `Read the reviewed mapeo-por-cluster.csv and copy the product name, category
and action of every cluster that has both a name and a category onto the rows
of mapeo-manual.csv whose source_name belongs to that cluster.

Clusters whose action is "skip" are ignored; an empty action becomes "mapped".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := mapping.Apply(applyOpts)
		if err != nil {
			return err
		}
		mapping.PrintResult(os.Stdout, applyOpts, result)
		return nil
	},
}

func init() {
	flags := applyCmd.Flags()
	flags.StringVar(&applyOpts.ClusterDetail, "cluster-detail", applyOpts.ClusterDetail, "Per-image cluster detail CSV")
	flags.StringVar(&applyOpts.ClusterMapping, "cluster-mapping", applyOpts.ClusterMapping, "Reviewed per-cluster mapping CSV")
	flags.StringVar(&applyOpts.ManualMapping, "manual-mapping", applyOpts.ManualMapping, "Per-file mapping CSV updated in place")
}
