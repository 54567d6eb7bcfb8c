package cmd

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dcm2610/StellarStack-sub000/manager"
)

// serveCmd runs the control plane itself.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the StellarStack control plane",
	Long: `stellar serve command.

Starts the control plane API. Configuration comes from the
environment (optionally a .env file): STELLAR_HOST, STELLAR_PORT,
STELLAR_DB_DIR, STELLAR_WEBHOOK_URL, STELLAR_DAEMON_TIMEOUT,
STELLAR_LOG_LEVEL, STELLAR_LOG_FORMAT.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
			log.Printf("skipping .env: %v", err)
		}

		logger := logrus.New()
		if lvl, err := logrus.ParseLevel(envOr("STELLAR_LOG_LEVEL", "info")); err == nil {
			logger.SetLevel(lvl)
		}
		if envOr("STELLAR_LOG_FORMAT", "text") == "json" {
			logger.SetFormatter(&logrus.JSONFormatter{})
		}

		port, _ := strconv.Atoi(envOr("STELLAR_PORT", "5555"))
		timeout, _ := time.ParseDuration(envOr("STELLAR_DAEMON_TIMEOUT", "15s"))

		m, err := manager.New(manager.Config{
			Host:          envOr("STELLAR_HOST", "0.0.0.0"),
			Port:          port,
			DBDir:         os.Getenv("STELLAR_DB_DIR"),
			WebhookURL:    os.Getenv("STELLAR_WEBHOOK_URL"),
			DaemonTimeout: timeout,
			Logger:        logger,
		})
		if err != nil {
			logger.WithError(err).Fatal("control plane setup failed")
		}
		if err := m.Start(); err != nil {
			logger.WithError(err).Fatal("control plane stopped")
		}
	},
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
