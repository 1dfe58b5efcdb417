/*
Copyright © 2026 Paulo Suderio
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "werewolf-arena",
	Short: "Run Werewolf matches between language model agents and humans",
	Long: `werewolf-arena seats model driven agents and human players at a game
of Werewolf, runs the night and day phases, and records every event in an
append-only history that can be replayed deterministically.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.werewolf-arena.yaml)")
	rootCmd.PersistentFlags().String("data_dir", "", "directory with game.yaml and roles.yaml overrides")
	rootCmd.PersistentFlags().String("games_dir", "./games", "directory where game histories are stored")
	rootCmd.PersistentFlags().String("db_driver", "", "store histories in a database instead (sqlite or postgres)")
	rootCmd.PersistentFlags().String("db_dsn", "", "database connection string")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log engine decisions to stderr")

	for _, name := range []string{"data_dir", "games_dir", "db_driver", "db_dsn", "verbose"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".werewolf-arena")
	}

	viper.SetEnvPrefix("WEREWOLF")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && viper.GetBool("verbose") {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
