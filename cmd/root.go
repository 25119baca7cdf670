package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"truebite-api/config"
	"truebite-api/events"
	"truebite-api/services"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "truebite",
	Short: "Order, delivery-bidding and complaint API for the TrueBite kitchen",
	Long: `truebite runs the TrueBite HTTP API: customers order against a prepaid deposit,
chefs move orders through the kitchen, delivery people bid for ready orders and
managers assign deliveries, resolve complaints and approve accounts.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.AddCommand(serveCmd, seedCmd, reportCmd)
}

// loadConfig reads configuration and installs the process-wide slog logger
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(viper.New(), cfgFile)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// newPublisher picks Kafka when enabled, else the log publisher
func newPublisher(cfg *config.Config, logger *slog.Logger) (events.Publisher, error) {
	if !cfg.Kafka.Enabled {
		return events.NewLogPublisher(logger), nil
	}
	pub, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		return nil, err
	}
	logger.Info("Publishing events to Kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	return pub, nil
}

// bootstrap opens the database and wires the service layer
func bootstrap(cfg *config.Config, logger *slog.Logger) (*gorm.DB, *services.Services, events.Publisher, error) {
	db, err := config.OpenDB(cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	pub, err := newPublisher(cfg, logger)
	if err != nil {
		closeDB(db, logger)
		return nil, nil, nil, err
	}
	svc := services.New(db, services.Options{
		Publisher:          pub,
		Logger:             logger,
		DefaultDeliveryFee: cfg.DefaultDeliveryFee,
	})
	return db, svc, pub, nil
}

func closeDB(db *gorm.DB, logger *slog.Logger) {
	if err := config.CloseDB(db); err != nil {
		logger.Warn("Failed to close database", "error", err)
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
