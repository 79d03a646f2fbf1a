package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/factdrill/factdrill/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "factdrill",
	Short: "Adaptive drill trainer for structured facts",
	Long: "Factdrill teaches small sets of structured facts (countries, elements,\n" +
		"muses) through adaptive multiple-choice drilling with mastery tracking.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides FACTDRILL_DB env var)")
	rootCmd.PersistentFlags().String("user", "", "User profile name (overrides FACTDRILL_USER env var)")
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(domainsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	viper.SetEnvPrefix("factdrill")
	viper.AutomaticEnv()
	viper.SetDefault("user", "local")
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then FACTDRILL_DB env var, then the default XDG path.
func resolveDBPath() (string, error) {
	if p := viper.GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// currentUser returns the active user profile name, "local" by default.
func currentUser() string {
	return viper.GetString("user")
}

// openStore opens the store at the resolved path.
func openStore() (*store.Store, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, err
	}
	return store.Open(dbPath)
}
