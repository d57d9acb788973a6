/*
Copyright © 2025 Godwin Mafireyi (mafireyi@gmail.com)
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "singlecell-whisperer",
	Short: "Post-processing for single-cell HMMcopy results",
	Long: `Post-processing toolkit for single-cell copy-number (HMMcopy) results:
1.	Merge per-cell reads and metrics tables
2.	Filter cells on quality metrics
3.	Order cells by hierarchical clustering of their copy-number profiles
4.	Annotate metrics with the cluster order
5.	Render copy-number heatmaps
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var cfgFile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringP("reference", "r", "", "path to reference genome fasta file, sets the chromosome order")
}
