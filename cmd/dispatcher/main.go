package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sapliy/emergency-dispatch/internal/config"
	"github.com/sapliy/emergency-dispatch/pkg/observability"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dispatcher",
	Short: "Emergency responder dispatch service",
	Long: `Alerts emergency-services responders by SMS when an emergency request is
created and removes authentication identities of deleted users.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); environment variables override it")
	rootCmd.AddCommand(serveCmd, migrateCmd, notifyCmd, emitCmd)
}

// loadConfig reads the config and resolves messaging credentials from
// Secrets Manager when a secret id is configured.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := config.ResolveMessagingSecret(ctx, &cfg.Messaging); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *observability.Logger {
	return observability.NewLoggerTo(os.Stdout, cfg.ServiceName, observability.ParseLevel(cfg.LogLevel))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
