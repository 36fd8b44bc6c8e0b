// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubrank/internal/normalize"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <text>...",
	Short: "Print the normalized key of each argument",
	Long: `Normalize prints the key pubrank compares titles and venue names by.
Use it to write patch table entries that match what the sources produce.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		rules, err := normalize.RulesFromConfig(cfg.Normalize)
		if err != nil {
			return err
		}
		n := normalize.New(rules)
		for _, arg := range args {
			fmt.Fprintf(os.Stdout, "%q\t%q\n", arg, n.Normalize(arg))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
}
