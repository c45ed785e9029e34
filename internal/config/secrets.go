package config

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretGetter is the subset of the Secrets Manager client used to read credentials.
type SecretGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type messagingSecret struct {
	AccountSID string `json:"account_sid"`
	AuthToken  string `json:"auth_token"`
	FromNumber string `json:"from_number"`
}

// ResolveMessagingSecret fills missing messaging credentials from AWS Secrets Manager
// when messaging.secret_id is set. Values already present in the environment win.
func ResolveMessagingSecret(ctx context.Context, m *Messaging) error {
	if m.SecretID == "" {
		return nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	return applyMessagingSecret(ctx, secretsmanager.NewFromConfig(awsCfg), m)
}

func applyMessagingSecret(ctx context.Context, client SecretGetter, m *Messaging) error {
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(m.SecretID),
	})
	if err != nil {
		return fmt.Errorf("get secret %s: %w", m.SecretID, err)
	}

	var secret messagingSecret
	if err := json.Unmarshal([]byte(aws.ToString(out.SecretString)), &secret); err != nil {
		return fmt.Errorf("decode secret %s: %w", m.SecretID, err)
	}

	if m.AccountSID == "" {
		m.AccountSID = secret.AccountSID
	}
	if m.AuthToken == "" {
		m.AuthToken = secret.AuthToken
	}
	if m.FromNumber == "" {
		m.FromNumber = secret.FromNumber
	}
	return nil
}
