// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package pii defines the PII type identifiers shared by the detector and
// the store, together with the static severity reference set.
package pii

// PII type identifiers. These are the values persisted in
// findings.pii_type and returned by the HTTP surface.
const (
	TypePerson        = "PERSON"
	TypeLocation      = "LOCATION"
	TypeEmailAddress  = "EMAIL_ADDRESS"
	TypePhoneNumber   = "PHONE_NUMBER"
	TypeUSSSN         = "US_SSN"
	TypeUSITIN        = "US_ITIN"
	TypeUSDriverLic   = "US_DRIVER_LICENSE"
	TypeUSPassport    = "US_PASSPORT"
	TypeCreditCard    = "CREDIT_CARD"
	TypeUSBankNumber  = "US_BANK_NUMBER"
	TypeBankAccount   = "BANK_ACCOUNT"
	TypeIPAddress     = "IP_ADDRESS"
	TypeDateTime      = "DATE_TIME"
	TypeURL           = "URL"
	TypeCaseNumber    = "CASE_NUMBER"
	TypeLegalRoleName = "LEGAL_ROLE_NAME"
	TypeRoutingNumber = "ROUTING_NUMBER"
	TypeMedicalRecord = "MEDICAL_RECORD"
	TypeMACAddress    = "MAC_ADDRESS"
	TypeDeviceID      = "DEVICE_ID"
)

// Category describes one PII type: its machine name, a human label, and a
// severity level in 1..5 used for overlap tie-breaks and report ordering.
type Category struct {
	PIIType     string
	Name        string
	Description string
	Severity    int
}

// DefaultSeverity is used for any pii_type missing from the reference set.
const DefaultSeverity = 3

// Categories is the static reference set seeded into the store on first
// migration.
var Categories = []Category{
	{TypePerson, "Person Name", "Full or partial person name", 4},
	{TypeLocation, "Location", "Physical address or location", 3},
	{TypeEmailAddress, "Email Address", "Email address", 3},
	{TypePhoneNumber, "Phone Number", "Phone or fax number", 3},
	{TypeUSSSN, "Social Security Number", "US Social Security Number", 5},
	{TypeUSITIN, "ITIN", "Individual Taxpayer Identification Number", 5},
	{TypeUSDriverLic, "Driver's License", "US driver's license number", 5},
	{TypeUSPassport, "Passport Number", "US passport number", 5},
	{TypeCreditCard, "Credit Card", "Credit or debit card number", 5},
	{TypeUSBankNumber, "Bank Account", "US bank account number", 5},
	{TypeBankAccount, "Bank Account (contextual)", "Account number near a finance keyword", 5},
	{TypeIPAddress, "IP Address", "IPv4 or IPv6 address", 2},
	{TypeDateTime, "Date/Time", "Date or time expression", 1},
	{TypeURL, "URL", "Web URL", 1},
	{TypeCaseNumber, "Case Number", "Legal case or docket number", 3},
	{TypeLegalRoleName, "Legal Role Name", "Judge, attorney, victim, witness, or minor name", 5},
	{TypeRoutingNumber, "Routing Number", "Bank routing number", 4},
	{TypeMedicalRecord, "Medical Record Number", "Medical record or patient ID", 5},
	{TypeMACAddress, "MAC Address", "Network MAC address", 2},
	{TypeDeviceID, "Device Identifier", "Device serial or IMEI", 2},
}

var severityByType = func() map[string]int {
	m := make(map[string]int, len(Categories))
	for _, c := range Categories {
		m[c.PIIType] = c.Severity
	}
	return m
}()

// SeverityFor returns the severity level for a pii_type, falling back to
// DefaultSeverity for unknown types.
func SeverityFor(piiType string) int {
	if s, ok := severityByType[piiType]; ok {
		return s
	}
	return DefaultSeverity
}
