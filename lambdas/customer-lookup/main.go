package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/pinetelecom/connect-crm-lambdas/internal/crm"
	"github.com/pinetelecom/connect-crm-lambdas/internal/envcfg"
	"github.com/pinetelecom/connect-crm-lambdas/internal/faults"
	"github.com/pinetelecom/connect-crm-lambdas/internal/localrun"
	"github.com/pinetelecom/connect-crm-lambdas/internal/logging"
	"github.com/pinetelecom/connect-crm-lambdas/internal/paramstore"
)

// HandlerService contains dependencies for the Lambda handler.
type HandlerService struct {
	logger       *logging.Logger
	tokenFetcher crm.TokenFetcher
	client       *crm.Client
}

// NewHandlerService loads configuration and builds the handler dependencies.
func NewHandlerService(ctx context.Context, logger *logging.Logger) (*HandlerService, error) {
	var params paramstore.Getter
	if envcfg.GetString(crm.EnvCredentialsParam, "") != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		params, err = paramstore.New(ssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, err
		}
	}

	creds, err := crm.LoadCredentials(ctx, params)
	if err != nil {
		return nil, err
	}
	instanceURL, err := envcfg.Require(crm.EnvInstanceURL)
	if err != nil {
		return nil, err
	}

	return &HandlerService{
		logger:       logger,
		tokenFetcher: crm.NewPasswordGrantFetcher(logger, creds),
		client:       crm.NewClient(logger, instanceURL),
	}, nil
}

// Handle looks a customer up by the account number carried on the event
// root. A missing account number and a failed token fetch abort the
// invocation; a failed lookup is reported in the result instead.
func (s *HandlerService) Handle(ctx context.Context, raw json.RawMessage) (events.ConnectResponse, error) {
	s.logger.Debugf("Received event: %s", string(raw))

	var event struct {
		Account string `json:"Account"`
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, faults.Validation("error parsing event: %v", err)
	}
	accountNumber := strings.TrimSpace(event.Account)
	if accountNumber == "" {
		return nil, faults.Validation("missing required attribute: 'Account'")
	}

	token, err := s.tokenFetcher.GetToken(ctx)
	if err != nil {
		s.logger.Errorf("Token generation failed: %v", err)
		return nil, err
	}

	result, err := s.client.Lookup(ctx, token, crm.BySubscription(accountNumber))
	if err != nil {
		s.logger.Errorf("Error communicating with CRM: %v", err)
		return events.ConnectResponse{"validate": "false", "error": err.Error()}, nil
	}

	if result.Matched() {
		return events.ConnectResponse{
			"validate": "true",
			"CustId":   result.Customer.CustID,
			"Name":     result.Customer.FirstName,
			"Email":    result.Customer.Email,
		}, nil
	}
	return events.ConnectResponse{"validate": "false"}, nil
}

func main() {
	logger := logging.NewLogger()

	svc, err := NewHandlerService(context.Background(), logger)
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
