package main

import (
	"context"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/pinetelecom/connect-crm-lambdas/internal/localrun"
	"github.com/pinetelecom/connect-crm-lambdas/internal/logging"
)

// nameAttribute is the contact attribute inspected by this lambda.
const nameAttribute = "customerName"

// HandlerService contains dependencies for the Lambda handler.
type HandlerService struct {
	logger *logging.Logger
}

// NewHandlerService creates a new HandlerService.
func NewHandlerService() *HandlerService {
	return &HandlerService{logger: logging.NewLogger()}
}

// Handle reports whether the customerName contact attribute carries a
// non-blank value. The flag is a string because Connect expects a string map;
// the returned value is the original, untrimmed attribute.
func (s *HandlerService) Handle(ctx context.Context, event events.ConnectEvent) (events.ConnectResponse, error) {
	s.logger.Debugf("Received event: %+v", event)

	nameValue := event.Details.ContactData.Attributes[nameAttribute]
	if strings.TrimSpace(nameValue) == "" {
		return events.ConnectResponse{
			"name_found": "False",
			"name_value": "",
		}, nil
	}
	return events.ConnectResponse{
		"name_found": "True",
		"name_value": nameValue,
	}, nil
}

func main() {
	svc := NewHandlerService()
	if localrun.Requested(os.Args) {
		localrun.Run(svc.Handle)
		return
	}
	lambda.Start(svc.Handle)
}
