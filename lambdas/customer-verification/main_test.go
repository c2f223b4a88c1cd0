package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pinetelecom/connect-crm-lambdas/internal/crm"
	"github.com/pinetelecom/connect-crm-lambdas/internal/lex"
	"github.com/pinetelecom/connect-crm-lambdas/internal/logging"
	"github.com/pinetelecom/connect-crm-lambdas/internal/secrets"
)

type MainTestSuite struct {
	suite.Suite
}

func TestMainTestSuite(t *testing.T) {
	suite.Run(t, new(MainTestSuite))
}

type fakeCredentials struct {
	creds *secrets.APICredentials
	err   error
}

func (f *fakeCredentials) GetAPICredentials(_ context.Context, _ string) (*secrets.APICredentials, error) {
	return f.creds, f.err
}

func lexEvent(slots map[string]string) lex.Event {
	event := lex.Event{}
	event.SessionState.Intent.Name = "user_auth"
	event.SessionState.Intent.Slots = map[string]*lex.Slot{}
	for name, value := range slots {
		event.SessionState.Intent.Slots[name] = &lex.Slot{
			Value: &lex.SlotValue{InterpretedValue: value},
		}
	}
	return event
}

func (s *MainTestSuite) TestHandle() {
	tests := []struct {
		name           string
		slots          map[string]string
		backendStatus  int
		backendBody    any
		credsErr       error
		wantPayload    map[string]string
		wantAction     string
		wantSlot       string
		wantVerified   bool
		wantNoBackend  bool
	}{
		{
			name:          "account number match closes the dialog",
			slots:         map[string]string{"accountNumber": "SUB-1001"},
			backendStatus: http.StatusOK,
			backendBody:   map[string]string{"CustId": "C-9", "FirstName": "Ada"},
			wantPayload:   map[string]string{"SubscriptionNumber": "SUB-1001"},
			wantAction:    "Close",
			wantVerified:  true,
		},
		{
			name:          "account number miss asks for phone",
			slots:         map[string]string{"accountNumber": "SUB-1001"},
			backendStatus: http.StatusOK,
			backendBody:   map[string]string{},
			wantPayload:   map[string]string{"SubscriptionNumber": "SUB-1001"},
			wantAction:    "ElicitSlot",
			wantSlot:      "phoneNumber",
		},
		{
			name:          "phone without house asks for house without a lookup",
			slots:         map[string]string{"phoneNumber": "+4915112345"},
			wantAction:    "ElicitSlot",
			wantSlot:      "houseNumber",
			wantNoBackend: true,
		},
		{
			name:          "phone and house match closes the dialog",
			slots:         map[string]string{"phoneNumber": "+4915112345", "houseNumber": "12b"},
			backendStatus: http.StatusOK,
			backendBody:   map[string]string{"CustId": "C-9"},
			wantPayload:   map[string]string{"CustPhone": "+4915112345", "CustHouse": "12b"},
			wantAction:    "Close",
			wantVerified:  true,
		},
		{
			name:          "phone and house miss restarts with account number",
			slots:         map[string]string{"phoneNumber": "+4915112345", "houseNumber": "12b"},
			backendStatus: http.StatusOK,
			backendBody:   map[string]string{},
			wantPayload:   map[string]string{"CustPhone": "+4915112345", "CustHouse": "12b"},
			wantAction:    "ElicitSlot",
			wantSlot:      "accountNumber",
		},
		{
			name:          "no slots asks for account number without a lookup",
			slots:         map[string]string{},
			wantAction:    "ElicitSlot",
			wantSlot:      "accountNumber",
			wantNoBackend: true,
		},
		{
			name:          "backend failure degrades to account number retry",
			slots:         map[string]string{"accountNumber": "SUB-1001"},
			backendStatus: http.StatusInternalServerError,
			backendBody:   map[string]string{"error": "boom"},
			wantAction:    "ElicitSlot",
			wantSlot:      "accountNumber",
		},
		{
			name:       "credential fetch failure degrades to account number retry",
			slots:      map[string]string{"accountNumber": "SUB-1001"},
			credsErr:   errors.New("secret unavailable"),
			wantAction: "ElicitSlot",
			wantSlot:   "accountNumber",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			backendCalled := false
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				backendCalled = true
				s.Equal("/services/apexrest/customer", r.URL.Path)
				s.Equal("Bearer test-token", r.Header.Get("Authorization"))

				if tt.wantPayload != nil {
					var payload map[string]string
					s.NoError(json.NewDecoder(r.Body).Decode(&payload))
					s.Equal(tt.wantPayload, payload)
				}

				w.WriteHeader(tt.backendStatus)
				json.NewEncoder(w).Encode(tt.backendBody)
			}))
			defer server.Close()

			logger := logging.NewLogger()
			credsSource := &fakeCredentials{
				creds: &secrets.APICredentials{APIURL: server.URL, APIToken: "test-token"},
				err:   tt.credsErr,
			}

			svc := &HandlerService{
				logger: logger,
				cfg:    Config{SecretName: "test-secret", LookupTimeout: 5 * time.Second},
				creds:  credsSource,
				newClient: func(baseURL string) *crm.Client {
					return crm.NewClient(logger, baseURL, crm.WithTimeout(5*time.Second))
				},
			}

			got, err := svc.Handle(context.Background(), lexEvent(tt.slots))
			s.NoError(err)

			s.Require().NotNil(got.SessionState.DialogAction)
			s.Equal(tt.wantAction, got.SessionState.DialogAction.Type)
			s.Equal(tt.wantSlot, got.SessionState.DialogAction.SlotToElicit)
			s.Equal("user_auth", got.SessionState.Intent.Name)
			s.Require().Len(got.Messages, 1)
			s.Equal("PlainText", got.Messages[0].ContentType)
			s.NotEmpty(got.Messages[0].Content)

			if tt.wantVerified {
				s.Equal("Fulfilled", got.SessionState.Intent.State)
				s.Equal("true", got.SessionState.SessionAttributes["verified"])
			} else {
				s.Equal("InProgress", got.SessionState.Intent.State)
			}
			if tt.wantNoBackend {
				s.False(backendCalled, "no lookup should have been performed")
			}
		})
	}
}

func (s *MainTestSuite) TestConfigFromEnv() {
	s.Run("missing secret name fails", func() {
		s.T().Setenv("CREDENTIALS_SECRET_NAME", "")
		_, err := ConfigFromEnv()
		s.Error(err)
		s.Contains(err.Error(), "CREDENTIALS_SECRET_NAME")
	})

	s.Run("defaults applied", func() {
		s.T().Setenv("CREDENTIALS_SECRET_NAME", "crm/api")
		cfg, err := ConfigFromEnv()
		s.NoError(err)
		s.Equal("crm/api", cfg.SecretName)
		s.Equal(5*time.Second, cfg.LookupTimeout)
	})

	s.Run("timeout override", func() {
		s.T().Setenv("CREDENTIALS_SECRET_NAME", "crm/api")
		s.T().Setenv("LOOKUP_TIMEOUT", "2s")
		cfg, err := ConfigFromEnv()
		s.NoError(err)
		s.Equal(2*time.Second, cfg.LookupTimeout)
	})
}
