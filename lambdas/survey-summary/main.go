package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/pinetelecom/connect-crm-lambdas/internal/envcfg"
	"github.com/pinetelecom/connect-crm-lambdas/internal/localrun"
	"github.com/pinetelecom/connect-crm-lambdas/internal/logging"
	"github.com/pinetelecom/connect-crm-lambdas/internal/survey"
)

const dateLayout = "2006-01-02"

// Event carries the inclusive reporting window, both dates as YYYY-MM-DD.
type Event struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Response is the HTTP-style envelope the caller expects. Body is a
// structured value on success and a JSON-encoded string on error.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       any               `json:"body"`
}

// recordSource abstracts the interaction store for tests.
type recordSource interface {
	RecordsBetween(ctx context.Context, start, end string) ([]survey.Record, error)
}

// HandlerService contains dependencies for the Lambda handler.
type HandlerService struct {
	logger *logging.Logger
	store  recordSource
}

// NewHandlerService builds the handler over the configured DynamoDB table.
func NewHandlerService(ctx context.Context, logger *logging.Logger) (*HandlerService, error) {
	tableName, err := envcfg.Require("TABLE_NAME")
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	store, err := survey.NewStore(logger, dynamodb.NewFromConfig(awsCfg), tableName)
	if err != nil {
		return nil, err
	}
	return &HandlerService{logger: logger, store: store}, nil
}

// Handle aggregates chatbot survey answers over the requested window.
// Input problems yield a 400-style response, store failures a 500-style
// response; neither surfaces as an invocation error.
func (s *HandlerService) Handle(ctx context.Context, event Event) (Response, error) {
	s.logger.Debugf("Received event: %+v", event)

	if event.Start == "" || event.End == "" {
		return errorResponse(400, "Missing required keys: 'start' and 'end' must be provided in the event payload."), nil
	}
	if _, err := time.Parse(dateLayout, event.Start); err != nil {
		return errorResponse(400, fmt.Sprintf("Invalid date format for 'start'. Expected 'YYYY-MM-DD'. Details: %v", err)), nil
	}
	endDate, err := time.Parse(dateLayout, event.End)
	if err != nil {
		return errorResponse(400, fmt.Sprintf("Invalid date format for 'end'. Expected 'YYYY-MM-DD'. Details: %v", err)), nil
	}

	// The end date is inclusive of the whole day, so the scan's upper bound
	// is the following day.
	endExclusive := endDate.AddDate(0, 0, 1).Format(dateLayout)
	s.logger.Debugf("Adjusted end timestamp: %s", endExclusive)

	records, err := s.store.RecordsBetween(ctx, event.Start, endExclusive)
	if err != nil {
		s.logger.Errorf("Failed to read interaction records: %v", err)
		return errorResponse(500, err.Error()), nil
	}

	return Response{
		StatusCode: 200,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       survey.Summarize(records),
	}, nil
}

// errorResponse wraps message as a JSON-encoded string body.
func errorResponse(status int, message string) Response {
	body, _ := json.Marshal(map[string]string{"error": message})
	return Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
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
