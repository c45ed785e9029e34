package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sapliy/emergency-dispatch/internal/config"
	"github.com/sapliy/emergency-dispatch/internal/directory"
	"github.com/sapliy/emergency-dispatch/internal/dispatch"
	"github.com/sapliy/emergency-dispatch/internal/notification"
	"github.com/sapliy/emergency-dispatch/pkg/database"
)

var (
	requestFile string
	dryRun      bool
	drill       bool
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Run one dispatch pass for an emergency request read from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := readRequest(requestFile)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		db, err := database.Connect(cmd.Context(), cfg.Database.DSN, database.Options{})
		if err != nil {
			return err
		}
		defer db.Close()

		messagingCfg := cfg.Messaging
		var gateway dispatch.MessageGateway
		if dryRun {
			gateway = notification.NewLogSMSDriver(logger)
			messagingCfg = dryRunCredentials(messagingCfg)
		} else {
			gateway = notification.NewSMSSender(messagingCfg, logger)
		}

		notifier := dispatch.NewNotifier(directory.NewRepository(db), gateway, nil, messagingCfg, cfg.Dispatch, logger)
		if drill {
			notifier = notifier.WithTemplate(notification.TemplateDrill)
		}

		summary := notifier.Notify(cmd.Context(), req)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	notifyCmd.Flags().StringVar(&requestFile, "request-file", "", "path to the emergency request JSON")
	notifyCmd.Flags().BoolVar(&dryRun, "dry-run", false, "log messages instead of sending them")
	notifyCmd.Flags().BoolVar(&drill, "drill", false, "use the drill template")
	_ = notifyCmd.MarkFlagRequired("request-file")
}

func readRequest(path string) (*dispatch.EmergencyRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}
	var req dispatch.EmergencyRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decode request file: %w", err)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	return &req, nil
}

// dryRunCredentials fills missing credentials with placeholders so the
// credential gate does not stop a dry run.
func dryRunCredentials(m config.Messaging) config.Messaging {
	if m.AccountSID == "" {
		m.AccountSID = "dry-run"
	}
	if m.AuthToken == "" {
		m.AuthToken = "dry-run"
	}
	if m.FromNumber == "" {
		m.FromNumber = "+10000000000"
	}
	return m
}
