package crm

import "regexp"

// emailRegex matches a basic local@domain.tld shape. It is intentionally
// loose; the CRM performs the authoritative match.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IsEmail reports whether value has a basic email format.
func IsEmail(value string) bool {
	return emailRegex.MatchString(value)
}

// LookupPayload is the JSON body sent to the customer endpoint. Exactly one
// of the three shapes (subscription number, phone+house, email) is populated
// per lookup; the constructors below are the only way one is built.
type LookupPayload struct {
	SubscriptionNumber string `json:"SubscriptionNumber,omitempty"`
	CustPhone          string `json:"CustPhone,omitempty"`
	CustHouse          string `json:"CustHouse,omitempty"`
	CustEmail          string `json:"CustEmail,omitempty"`
}

// BySubscription builds a lookup payload keyed by subscription/account number.
func BySubscription(accountNumber string) LookupPayload {
	return LookupPayload{SubscriptionNumber: accountNumber}
}

// ByPhoneHouse builds a lookup payload keyed by phone and house number.
func ByPhoneHouse(phone, house string) LookupPayload {
	return LookupPayload{CustPhone: phone, CustHouse: house}
}

// ByEmail builds a lookup payload keyed by email address.
func ByEmail(email string) LookupPayload {
	return LookupPayload{CustEmail: email}
}
