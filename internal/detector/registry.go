// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import "redact-qc/internal/recognizers"

// BuildRecognizerSet constructs the full recognizer registry. Each caller
// gets fresh instances; recognizers are not shared across workers.
func BuildRecognizerSet() []recognizers.Recognizer {
	return []recognizers.Recognizer{
		recognizers.NewSSN(),
		recognizers.NewITIN(),
		recognizers.NewCreditCard(),
		recognizers.NewRoutingNumber(),
		recognizers.NewBankAccount(),
		recognizers.NewEmail(),
		recognizers.NewIPAddress(),
		recognizers.NewURL(),
		recognizers.NewMACAddress(),
		recognizers.NewPhone(),
		recognizers.NewPassport(),
		recognizers.NewDriverLicense(),
		recognizers.NewDateTime(),
		recognizers.NewDeviceID(),
		recognizers.NewCaseNumber(),
		recognizers.NewMedicalRecord(),
		recognizers.NewPersonName(),
		recognizers.NewLocation(),
		recognizers.NewLegalRole(),
	}
}
