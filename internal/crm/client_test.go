package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pinetelecom/connect-crm-lambdas/internal/faults"
	"github.com/pinetelecom/connect-crm-lambdas/internal/logging"
)

type ClientTestSuite struct {
	suite.Suite
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) TestLookup() {
	tests := []struct {
		name           string
		payload        LookupPayload
		responseStatus int
		responseBody   string
		wantBody       map[string]string
		wantCustID     string
		wantFields     int
		wantMatched    bool
		wantErr        bool
	}{
		{
			name:           "object response with identifier",
			payload:        BySubscription("SUB-1"),
			responseStatus: http.StatusOK,
			responseBody:   `{"CustId":"C-1","FirstName":"Ada","Email":"ada@example.com"}`,
			wantBody:       map[string]string{"SubscriptionNumber": "SUB-1"},
			wantCustID:     "C-1",
			wantFields:     3,
			wantMatched:    true,
		},
		{
			name:           "phone and house payload",
			payload:        ByPhoneHouse("+4915112345", "12b"),
			responseStatus: http.StatusOK,
			responseBody:   `{"CustId":"C-2","FirstName":"Ada"}`,
			wantBody:       map[string]string{"CustPhone": "+4915112345", "CustHouse": "12b"},
			wantCustID:     "C-2",
			wantFields:     2,
			wantMatched:    true,
		},
		{
			name:           "email payload",
			payload:        ByEmail("ada@example.com"),
			responseStatus: http.StatusOK,
			responseBody:   `{"CustId":"C-3","Email":"ada@example.com"}`,
			wantBody:       map[string]string{"CustEmail": "ada@example.com"},
			wantCustID:     "C-3",
			wantFields:     2,
			wantMatched:    true,
		},
		{
			name:           "list response keeps first element",
			payload:        BySubscription("SUB-1"),
			responseStatus: http.StatusOK,
			responseBody:   `[{"CustId":"C-1","FirstName":"Ada"},{"CustId":"C-2"}]`,
			wantBody:       map[string]string{"SubscriptionNumber": "SUB-1"},
			wantCustID:     "C-1",
			wantFields:     2,
			wantMatched:    true,
		},
		{
			name:           "empty object is no match",
			payload:        BySubscription("SUB-1"),
			responseStatus: http.StatusOK,
			responseBody:   `{}`,
			wantBody:       map[string]string{"SubscriptionNumber": "SUB-1"},
			wantMatched:    false,
		},
		{
			name:           "empty list is no match",
			payload:        BySubscription("SUB-1"),
			responseStatus: http.StatusOK,
			responseBody:   `[]`,
			wantBody:       map[string]string{"SubscriptionNumber": "SUB-1"},
			wantMatched:    false,
		},
		{
			name:           "non-200 status is a backend fault",
			payload:        BySubscription("SUB-1"),
			responseStatus: http.StatusBadGateway,
			responseBody:   `{"error":"down"}`,
			wantErr:        true,
		},
		{
			name:           "malformed JSON is a backend fault",
			payload:        BySubscription("SUB-1"),
			responseStatus: http.StatusOK,
			responseBody:   `not-json`,
			wantErr:        true,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				s.Equal("POST", r.Method)
				s.Equal("/services/apexrest/customer", r.URL.Path)
				s.Equal("Bearer test-token", r.Header.Get("Authorization"))
				s.Equal("application/json", r.Header.Get("Content-Type"))

				if tt.wantBody != nil {
					var body map[string]string
					s.NoError(json.NewDecoder(r.Body).Decode(&body))
					s.Equal(tt.wantBody, body, "payload must match exactly one shape")
				}

				w.WriteHeader(tt.responseStatus)
				w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			client := NewClient(logging.NewLogger(), server.URL)
			result, err := client.Lookup(context.Background(), "test-token", tt.payload)

			if tt.wantErr {
				s.Error(err)
				s.True(faults.IsBackend(err))
				return
			}
			s.NoError(err)
			s.Equal(tt.wantCustID, result.Customer.CustID)
			s.Equal(tt.wantFields, result.FieldCount)
			s.Equal(tt.wantMatched, result.Matched())
		})
	}
}

func (s *ClientTestSuite) TestLookupRequiresToken() {
	client := NewClient(logging.NewLogger(), "http://localhost:1")
	_, err := client.Lookup(context.Background(), "", BySubscription("SUB-1"))
	s.Error(err)
}

func (s *ClientTestSuite) TestIsEmail() {
	tests := []struct {
		value string
		want  bool
	}{
		{"a@b.com", true},
		{"first.last+tag@sub.domain.co", true},
		{"12345", false},
		{"A1-B2", false},
		{"missing-at.com", false},
		{"a@b", false},
		{"", false},
	}

	for _, tt := range tests {
		s.Run(tt.value, func() {
			s.Equal(tt.want, IsEmail(tt.value))
		})
	}
}

func (s *ClientTestSuite) TestPayloadShapes() {
	tests := []struct {
		name    string
		payload LookupPayload
		want    string
	}{
		{"subscription", BySubscription("SUB-1"), `{"SubscriptionNumber":"SUB-1"}`},
		{"phone and house", ByPhoneHouse("+49151", "12b"), `{"CustPhone":"+49151","CustHouse":"12b"}`},
		{"email", ByEmail("a@b.com"), `{"CustEmail":"a@b.com"}`},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			got, err := json.Marshal(tt.payload)
			s.NoError(err)
			s.JSONEq(tt.want, string(got))
		})
	}
}
