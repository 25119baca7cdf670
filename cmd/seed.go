package cmd

import (
	"fmt"
	"os"

	"truebite-api/seed"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate an empty database with demo accounts, dishes and deposits",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		db, svc, pub, err := bootstrap(cfg, logger)
		if err != nil {
			return err
		}
		defer closeDB(db, logger)
		defer pub.Close()

		summary, err := seed.New(db, svc, cfg.Seed, os.Stderr).Run(cmd.Context())
		if err != nil {
			return err
		}
		if summary.Skipped {
			logger.Info("Database already seeded", "manager", summary.Manager)
			return nil
		}
		fmt.Fprintln(os.Stderr)
		logger.Info("Seed complete",
			"manager", summary.Manager,
			"chefs", summary.Chefs,
			"dishes", summary.Dishes,
			"delivery_persons", summary.DeliveryPersons,
			"customers", summary.Customers,
			"password", seed.DefaultPassword,
		)
		return nil
	},
}
