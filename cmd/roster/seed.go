package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/afina/roster/internal/config"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Initialize the database and load demo players, managers, teams, games and tournaments",
	RunE:  runSeed,
}

var seedClear bool

func init() {
	seedCmd.Flags().BoolVar(&seedClear, "clear", false, "wipe roster data (keeping the first administrator) instead of seeding")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if seedClear {
		report, err := a.maintainer.ClearData(ctx, "")
		if err != nil {
			return err
		}
		slog.Info("roster data cleared",
			"members", report.Members,
			"teams", report.Teams,
			"tournaments", report.Tournaments,
			"games", report.Games,
			"users", report.Users,
		)
		return nil
	}

	res, err := a.maintainer.InitDatabase(ctx)
	if err != nil {
		return err
	}
	slog.Info("database initialized", "message", res.Message, "user_count", res.UserCount)

	report, err := a.maintainer.SeedMockData(ctx)
	if err != nil {
		return err
	}
	slog.Info("mock data seeded",
		"players_created", report.Players.Created,
		"players_existing", report.Players.Existing,
		"managers_created", report.Managers.Created,
		"teams_created", report.Teams.Created,
		"games_created", report.Games.Created,
		"tournaments_created", report.Tournaments.Created,
	)
	return nil
}
