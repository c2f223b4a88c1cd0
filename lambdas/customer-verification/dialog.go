package main

import "github.com/pinetelecom/connect-crm-lambdas/internal/lex"

// verifiedResponse closes the dialog with the verified session attribute set.
func verifiedResponse(intent string) lex.Response {
	return lex.Close(intent, "Fulfilled", map[string]string{"verified": "true"},
		"Thank you! Your details are verified. Let me connect you to a specialist.")
}

func askForPhone(intent string) lex.Response {
	return lex.ElicitSlot(intent, slotPhoneNumber,
		"I couldn't verify your account number. Could you please provide your phone number?")
}

func askForHouse(intent string) lex.Response {
	return lex.ElicitSlot(intent, slotHouseNumber,
		"Thanks! Now please provide your house number.")
}

func askForAccountNumberAgain(intent string) lex.Response {
	return lex.ElicitSlot(intent, slotAccountNumber,
		"Sorry, I couldn't verify your details. Can you please re-enter your subscription/account number?")
}
