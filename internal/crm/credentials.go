package crm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pinetelecom/connect-crm-lambdas/internal/envcfg"
	"github.com/pinetelecom/connect-crm-lambdas/internal/faults"
	"github.com/pinetelecom/connect-crm-lambdas/internal/paramstore"
)

// Environment variables for the OAuth password-grant credentials.
const (
	EnvTokenURL         = "CRM_TOKEN_URL"
	EnvClientID         = "CRM_CLIENT_ID"
	EnvClientSecret     = "CRM_CLIENT_SECRET"
	EnvUsername         = "CRM_USERNAME"
	EnvPassword         = "CRM_PASSWORD"
	EnvSecurityToken    = "CRM_SECURITY_TOKEN"
	EnvCredentialsParam = "CRM_CREDENTIALS_PARAM"
	EnvInstanceURL      = "CRM_INSTANCE_URL"
)

// credentialsDoc is the JSON document stored in SSM Parameter Store when
// CRM_CREDENTIALS_PARAM is configured.
type credentialsDoc struct {
	TokenURL      string `json:"token_url"`
	ClientID      string `json:"client_id"`
	ClientSecret  string `json:"client_secret"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	SecurityToken string `json:"security_token"`
}

// LoadCredentials builds the password-grant credentials from the environment.
// When CRM_CREDENTIALS_PARAM names an SSM parameter, its JSON fields overlay
// the environment values. Missing fields are a fatal configuration fault.
func LoadCredentials(ctx context.Context, params paramstore.Getter) (PasswordCredentials, error) {
	creds := PasswordCredentials{
		TokenURL:      envcfg.GetString(EnvTokenURL, ""),
		ClientID:      envcfg.GetString(EnvClientID, ""),
		ClientSecret:  envcfg.GetString(EnvClientSecret, ""),
		Username:      envcfg.GetString(EnvUsername, ""),
		Password:      envcfg.GetString(EnvPassword, ""),
		SecurityToken: envcfg.GetString(EnvSecurityToken, ""),
	}

	if paramName := envcfg.GetString(EnvCredentialsParam, ""); paramName != "" {
		if params == nil {
			return creds, faults.Fatal(fmt.Errorf("%s is set but no parameter store is available", EnvCredentialsParam))
		}
		raw, err := params.GetParameter(ctx, paramName)
		if err != nil {
			return creds, faults.Fatal(fmt.Errorf("failed to read credentials parameter: %w", err))
		}
		var doc credentialsDoc
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return creds, faults.Fatal(fmt.Errorf("failed to parse credentials parameter: %w", err))
		}
		overlay(&creds.TokenURL, doc.TokenURL)
		overlay(&creds.ClientID, doc.ClientID)
		overlay(&creds.ClientSecret, doc.ClientSecret)
		overlay(&creds.Username, doc.Username)
		overlay(&creds.Password, doc.Password)
		overlay(&creds.SecurityToken, doc.SecurityToken)
	}

	if err := creds.Validate(); err != nil {
		return creds, faults.Fatal(err)
	}
	return creds, nil
}

func overlay(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
