package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sapliy/emergency-dispatch/internal/events"
	"github.com/sapliy/emergency-dispatch/pkg/messaging"
)

var (
	emitCollection string
	emitType       string
	emitDocumentID string
	emitDataFile   string
)

var emitCmd = &cobra.Command{
	Use:   "emit",
	Short: "Publish a document change event to the Kafka topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		if len(cfg.Kafka.Brokers) == 0 {
			return errors.New("no kafka brokers configured")
		}

		e, err := buildEvent(emitCollection, events.Type(emitType), emitDocumentID, emitDataFile)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}

		producer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()

		if err := producer.Publish(cmd.Context(), e.DocumentID, payload); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), e.ID)
		return nil
	},
}

func init() {
	emitCmd.Flags().StringVar(&emitCollection, "collection", events.CollectionEmergencyRequests, "document collection")
	emitCmd.Flags().StringVar(&emitType, "type", string(events.TypeDocumentCreated), "event type")
	emitCmd.Flags().StringVar(&emitDocumentID, "document-id", "", "id of the changed document")
	emitCmd.Flags().StringVar(&emitDataFile, "data-file", "", "JSON snapshot to attach (optional)")
	_ = emitCmd.MarkFlagRequired("document-id")
}

func buildEvent(collection string, eventType events.Type, documentID, dataFile string) (*events.Event, error) {
	var data any
	if dataFile != "" {
		raw, err := os.ReadFile(dataFile)
		if err != nil {
			return nil, fmt.Errorf("read data file: %w", err)
		}
		if !json.Valid(raw) {
			return nil, fmt.Errorf("data file %s is not valid JSON", dataFile)
		}
		data = json.RawMessage(raw)
	}

	e, err := events.NewEvent(collection, eventType, documentID, data)
	if err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}
