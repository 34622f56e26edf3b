package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	inMemory bool
)

var rootCmd = &cobra.Command{
	Use:   "roster",
	Short: "Roster - esports organization admin service",
	Long:  "Roster manages the players, managers, teams, games and tournaments of an esports organization behind a role-scoped JSON API.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults and ROSTER_* env)")
	rootCmd.PersistentFlags().BoolVar(&inMemory, "in-memory", false, "use the in-memory store instead of PostgreSQL")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
