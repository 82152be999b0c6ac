// Package payment is the payment-provider boundary: a signature-verified
// webhook that advances applicant payment state. The provider retries on
// non-2xx, so the handler acknowledges receipt even when internal processing
// fails; failures are logged and the event is reprocessed on the next retry.
package payment

import (
	"github.com/markdevonuk/portal/pkg/email"
)

// PaymentStatus is the applicant's position in the payment flow.
type PaymentStatus string

const (
	StatusApprovedToPay PaymentStatus = "approved_to_pay"
	StatusPaid          PaymentStatus = "paid"
)

// Applicant tracks payment state for one volunteer, keyed by normalized
// email address because that is the only identity the provider echoes back.
type Applicant struct {
	Email  string        `json:"email"`
	Status PaymentStatus `json:"status"`
}

// NewApplicant records an applicant cleared to pay.
func NewApplicant(address string) Applicant {
	return Applicant{
		Email:  email.Normalize(address),
		Status: StatusApprovedToPay,
	}
}
