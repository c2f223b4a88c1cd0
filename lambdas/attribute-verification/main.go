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
	"github.com/pinetelecom/connect-crm-lambdas/internal/localrun"
	"github.com/pinetelecom/connect-crm-lambdas/internal/logging"
	"github.com/pinetelecom/connect-crm-lambdas/internal/paramstore"
)

// Merged-attribute keys carried by the contact flow.
const (
	attrPhoneNumber = "phone-number"
	attrHouseNumber = "H-No"
)

// accountKeys are the aliases under which the account-or-email value may
// arrive, in lookup order.
var accountKeys = []string{"Account", "AccountOrEmail", "account_data"}

// HandlerService contains dependencies for the Lambda handler.
type HandlerService struct {
	logger       *logging.Logger
	tokenFetcher crm.TokenFetcher
	client       *crm.Client
}

// NewHandlerService loads configuration and builds the handler dependencies.
// Missing credentials or instance URL are fatal.
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

// Handle validates the caller against the CRM using merged contact
// attributes. Token acquisition failure aborts the invocation; lookup
// failures are reported in the string-map result so the contact flow keeps
// its expected shape.
func (s *HandlerService) Handle(ctx context.Context, raw json.RawMessage) (events.ConnectResponse, error) {
	s.logger.Debugf("Received event: %s", string(raw))

	attributes := mergeAttributes(raw)

	token, err := s.tokenFetcher.GetToken(ctx)
	if err != nil {
		s.logger.Errorf("Token generation failed: %v", err)
		return nil, err
	}

	payload, ok := buildPayload(s.logger, attributes)
	if !ok {
		s.logger.Errorf("Missing required attributes: need %s & %s OR one of %v", attrPhoneNumber, attrHouseNumber, accountKeys)
		return events.ConnectResponse{"validate": "false", "Error": "Missing required attributes"}, nil
	}

	result, err := s.client.Lookup(ctx, token, payload)
	if err != nil {
		s.logger.Errorf("Error calling CRM API: %v", err)
		return events.ConnectResponse{"validate": "false", "Error": err.Error()}, nil
	}

	// More than one field on the response means the backend returned a
	// populated customer record, not just an echo.
	if result.FieldCount > 1 {
		return events.ConnectResponse{"validate": "true", "CustId": result.Customer.CustID}, nil
	}
	return events.ConnectResponse{"validate": "false", "CustId": ""}, nil
}

// buildPayload chooses the lookup shape by priority: phone+house first, then
// the account-or-email value classified by format.
func buildPayload(logger *logging.Logger, attributes map[string]string) (crm.LookupPayload, bool) {
	phone := attributes[attrPhoneNumber]
	house := attributes[attrHouseNumber]
	if phone != "" && house != "" {
		logger.Infof("Using phone and house number for lookup")
		return crm.ByPhoneHouse(phone, house), true
	}

	var account string
	for _, key := range accountKeys {
		if v := strings.TrimSpace(attributes[key]); v != "" {
			account = v
			break
		}
	}
	if account == "" {
		return crm.LookupPayload{}, false
	}

	if crm.IsEmail(account) {
		logger.Infof("Using email for lookup")
		return crm.ByEmail(account), true
	}
	logger.Infof("Using subscription number for lookup")
	return crm.BySubscription(account), true
}

// mergeAttributes flattens the event into a single attribute map. Root
// string-valued keys apply first, then contact attributes, then parameters;
// later sources override earlier ones and empty values never override.
func mergeAttributes(raw json.RawMessage) map[string]string {
	merged := make(map[string]string)

	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return merged
	}
	for k, v := range root {
		if str, ok := v.(string); ok && str != "" {
			merged[k] = str
		}
	}

	var event struct {
		Details struct {
			ContactData struct {
				Attributes map[string]string `json:"Attributes"`
			} `json:"ContactData"`
			Parameters map[string]string `json:"Parameters"`
		} `json:"Details"`
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		return merged
	}
	for k, v := range event.Details.ContactData.Attributes {
		if v != "" {
			merged[k] = v
		}
	}
	for k, v := range event.Details.Parameters {
		if v != "" {
			merged[k] = v
		}
	}
	return merged
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
