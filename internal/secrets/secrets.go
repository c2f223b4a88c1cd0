// Package secrets retrieves CRM API credentials from AWS Secrets Manager.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/pinetelecom/connect-crm-lambdas/internal/faults"
	"github.com/pinetelecom/connect-crm-lambdas/internal/logging"
)

// secretsManagerAPI is the minimal Secrets Manager interface required here.
// *secretsmanager.Client from aws-sdk-go-v2 satisfies this interface.
type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// APICredentials represents CRM API credentials retrieved from Secrets Manager.
// The secret is a JSON object with api_url and api_token fields.
type APICredentials struct {
	APIURL   string `json:"api_url"`
	APIToken string `json:"api_token"`
}

// Store wraps a Secrets Manager client for credential retrieval.
type Store struct {
	logger *logging.Logger
	api    secretsManagerAPI
}

// NewStore creates a Store with the given Secrets Manager API implementation.
func NewStore(logger *logging.Logger, api secretsManagerAPI) *Store {
	return &Store{logger: logger, api: api}
}

// GetAPICredentials fetches and parses the CRM credentials secret.
func (s *Store) GetAPICredentials(ctx context.Context, secretName string) (*APICredentials, error) {
	result, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		s.logger.Errorf("Failed to retrieve secret from Secrets Manager: %v", err)
		return nil, faults.Backend(fmt.Errorf("failed to retrieve secret %s: %w", secretName, err))
	}
	if result.SecretString == nil {
		return nil, faults.Backend(fmt.Errorf("secret %s value is empty or not a string", secretName))
	}

	var creds APICredentials
	if err := json.Unmarshal([]byte(*result.SecretString), &creds); err != nil {
		s.logger.Errorf("Failed to parse secret JSON: %v", err)
		return nil, faults.Backend(fmt.Errorf("failed to parse secret JSON: %w", err))
	}
	if creds.APIURL == "" || creds.APIToken == "" {
		return nil, faults.Backend(fmt.Errorf("secret %s must contain api_url and api_token as non-empty strings", secretName))
	}

	s.logger.Debugf("Successfully retrieved API credentials from Secrets Manager")
	return &creds, nil
}
