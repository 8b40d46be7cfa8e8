package main

import (
	"fmt"

	"github.com/clipstream/backend/internal/database"
	"github.com/clipstream/backend/internal/logger"
	"github.com/clipstream/backend/internal/seed"
	"github.com/spf13/cobra"
)

var seedClean bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the development database with realistic data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize("info", "clipctl.log"); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logger.Close()

		if err := database.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer database.Close()

		if err := database.Migrate(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		seeder := seed.NewSeeder(database.DB)

		if seedClean {
			if err := seeder.Clean(); err != nil {
				return fmt.Errorf("clean failed: %w", err)
			}
			fmt.Println("✓ Seed data removed")
			return nil
		}

		if err := seeder.SeedDev(); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
		fmt.Println("✓ Development database seeded")
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedClean, "clean", false, "Remove all seed data instead of creating it")
}
