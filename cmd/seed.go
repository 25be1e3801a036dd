package cmd

import (
	"fmt"
	"os"
	"time"

	"plated-rewards/services"

	"github.com/spf13/cobra"
)

var (
	seedCatalogFile string
	seedDays        int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert skill tracks, badges and the upcoming chaos-ingredient schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		if err := migrate(db); err != nil {
			return err
		}

		catalog, err := loadCatalog(seedCatalogFile)
		if err != nil {
			return err
		}

		report, err := services.SeedCatalog(cmd.Context(), db, catalog)
		if err != nil {
			return err
		}

		days := cfg.ChaosScheduleDays
		if seedDays > 0 {
			days = seedDays
		}
		scheduler := services.NewChaosScheduler(db, log, catalog.ChaosRotation, days)
		created, err := scheduler.EnsureSchedule(cmd.Context(), time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to seed chaos schedule: %w", err)
		}

		log.Infow("catalog seeded", "tracks", report.Tracks, "badges", report.Badges, "chaos_days", created)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedCatalogFile, "catalog", "", "YAML catalog to seed instead of the embedded one")
	seedCmd.Flags().IntVar(&seedDays, "days", 0, "number of chaos-ingredient days to schedule (default CHAOS_SCHEDULE_DAYS)")
}

func loadCatalog(path string) (*services.Catalog, error) {
	if path == "" {
		return services.DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return services.ParseCatalog(data)
}
