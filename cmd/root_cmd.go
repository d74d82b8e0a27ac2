package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ektoml",
	Short: "ektoml translates TOML documents into flat, ordered configuration keys.",
	Long:  "ektoml translates TOML documents into flat, ordered configuration keys, the way Elektra's TOML plugin would store them.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ektoml",
	Long:  `All software has versions. This is ektoml's`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ektoml v0.1 -- HEAD")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(tomlCmd)
}
