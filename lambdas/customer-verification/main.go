package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/pinetelecom/connect-crm-lambdas/internal/crm"
	"github.com/pinetelecom/connect-crm-lambdas/internal/envcfg"
	"github.com/pinetelecom/connect-crm-lambdas/internal/lex"
	"github.com/pinetelecom/connect-crm-lambdas/internal/localrun"
	"github.com/pinetelecom/connect-crm-lambdas/internal/logging"
	"github.com/pinetelecom/connect-crm-lambdas/internal/secrets"
)

// Slot names of the user_auth intent.
const (
	slotAccountNumber = "accountNumber"
	slotPhoneNumber   = "phoneNumber"
	slotHouseNumber   = "houseNumber"
)

// Config holds the lambda's environment configuration, validated once at startup.
type Config struct {
	// SecretName is the Secrets Manager secret holding api_url and api_token.
	SecretName string
	// LookupTimeout bounds each CRM lookup call.
	LookupTimeout time.Duration
}

// ConfigFromEnv reads and validates the configuration.
func ConfigFromEnv() (Config, error) {
	secretName, err := envcfg.Require("CREDENTIALS_SECRET_NAME")
	if err != nil {
		return Config{}, err
	}
	return Config{
		SecretName:    secretName,
		LookupTimeout: envcfg.GetDuration("LOOKUP_TIMEOUT", 5*time.Second),
	}, nil
}

// credentialsSource abstracts the Secrets Manager store for tests.
type credentialsSource interface {
	GetAPICredentials(ctx context.Context, secretName string) (*secrets.APICredentials, error)
}

// HandlerService contains dependencies for the Lambda handler.
type HandlerService struct {
	logger *logging.Logger
	cfg    Config
	creds  credentialsSource
	// newClient builds a CRM client for the api_url carried by the secret.
	newClient func(baseURL string) *crm.Client
}

// NewHandlerService creates a HandlerService with default dependencies.
func NewHandlerService(ctx context.Context, logger *logging.Logger, cfg Config) (*HandlerService, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &HandlerService{
		logger: logger,
		cfg:    cfg,
		creds:  secrets.NewStore(logger, secretsmanager.NewFromConfig(awsCfg)),
		newClient: func(baseURL string) *crm.Client {
			return crm.NewClient(logger, baseURL, crm.WithTimeout(cfg.LookupTimeout))
		},
	}, nil
}

// Handle runs the verification decision tree over the Lex slots. Every
// failure along the way — credential fetch, CRM call, malformed response —
// degrades to the elicit-account retry prompt; the bot never sees an error.
func (s *HandlerService) Handle(ctx context.Context, event lex.Event) (lex.Response, error) {
	s.logger.Debugf("Received event: %+v", event)

	intent := intentName(&event)
	response, err := s.verify(ctx, &event, intent)
	if err != nil {
		s.logger.Errorf("Verification flow failed, re-asking for account number: %v", err)
		return askForAccountNumberAgain(intent), nil
	}
	return response, nil
}

func (s *HandlerService) verify(ctx context.Context, event *lex.Event, intent string) (lex.Response, error) {
	accountNumber := event.SlotValue(slotAccountNumber)
	phoneNumber := event.SlotValue(slotPhoneNumber)
	houseNumber := event.SlotValue(slotHouseNumber)

	// Account number is tried first when present.
	if accountNumber != "" {
		result, err := s.lookup(ctx, crm.BySubscription(accountNumber))
		if err != nil {
			return lex.Response{}, err
		}
		if result.Matched() {
			return verifiedResponse(intent), nil
		}
		return askForPhone(intent), nil
	}

	if phoneNumber != "" && houseNumber == "" {
		return askForHouse(intent), nil
	}

	if phoneNumber != "" && houseNumber != "" {
		result, err := s.lookup(ctx, crm.ByPhoneHouse(phoneNumber, houseNumber))
		if err != nil {
			return lex.Response{}, err
		}
		if result.Matched() {
			return verifiedResponse(intent), nil
		}
		// Still not found: restart the flow from the account number.
		return askForAccountNumberAgain(intent), nil
	}

	// No identifying slot filled yet.
	return askForAccountNumberAgain(intent), nil
}

func (s *HandlerService) lookup(ctx context.Context, payload crm.LookupPayload) (*crm.LookupResult, error) {
	creds, err := s.creds.GetAPICredentials(ctx, s.cfg.SecretName)
	if err != nil {
		return nil, err
	}
	return s.newClient(creds.APIURL).Lookup(ctx, creds.APIToken, payload)
}

// intentName returns the active intent name, defaulting to the verification
// intent when the event does not carry one.
func intentName(event *lex.Event) string {
	if name := event.SessionState.Intent.Name; name != "" {
		return name
	}
	return "user_auth"
}

func main() {
	logger := logging.NewLogger()

	cfg, err := ConfigFromEnv()
	if err != nil {
		logger.Errorf("Invalid configuration: %v", err)
		os.Exit(1)
	}

	svc, err := NewHandlerService(context.Background(), logger, cfg)
	if err != nil {
		logger.Errorf("Failed to initialize handler: %v", err)
		os.Exit(1)
	}

	if localrun.Requested(os.Args) {
		localrun.Run(svc.Handle)
		return
	}
	lambda.Start(svc.Handle)
}
