package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the PagSeguro numeric status code, kept as the string
// the gateway sends.
type TransactionStatus string

const (
	StatusAwaitingPayment    TransactionStatus = "1"
	StatusInAnalysis         TransactionStatus = "2"
	StatusPaid               TransactionStatus = "3"
	StatusAvailable          TransactionStatus = "4"
	StatusInDispute          TransactionStatus = "5"
	StatusReturned           TransactionStatus = "6"
	StatusCancelled          TransactionStatus = "7"
	StatusDebited            TransactionStatus = "8"
	StatusTemporaryRetention TransactionStatus = "9"
)

type StatusClass string

const (
	ClassConfirmed   StatusClass = "confirmed"
	ClassUnconfirmed StatusClass = "unconfirmed"
	ClassUnknown     StatusClass = "unknown"
)

var statusNames = map[TransactionStatus]string{
	StatusAwaitingPayment:    "awaiting_payment",
	StatusInAnalysis:         "in_analysis",
	StatusPaid:               "paid",
	StatusAvailable:          "available",
	StatusInDispute:          "in_dispute",
	StatusReturned:           "returned",
	StatusCancelled:          "cancelled",
	StatusDebited:            "debited",
	StatusTemporaryRetention: "temporary_retention",
}

// Classify maps Paid and Available to confirmed, every other known code to
// unconfirmed and anything else to unknown.
func (s TransactionStatus) Classify() StatusClass {
	switch s {
	case StatusPaid, StatusAvailable:
		return ClassConfirmed
	}
	if _, ok := statusNames[s]; ok {
		return ClassUnconfirmed
	}
	return ClassUnknown
}

func (s TransactionStatus) Confirmed() bool { return s.Classify() == ClassConfirmed }

func (s TransactionStatus) Name() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

type Sender struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Transaction is the gateway's view of a payment, fetched per notification.
type Transaction struct {
	Code          string            `json:"code"`
	Reference     string            `json:"reference,omitempty"`
	Type          string            `json:"type,omitempty"`
	Status        TransactionStatus `json:"status"`
	Date          time.Time         `json:"date"`
	LastEventDate time.Time         `json:"last_event_date"`
	GrossAmount   decimal.Decimal   `json:"gross_amount"`
	Sender        Sender            `json:"sender"`
}

func (t Transaction) PaymentSummary() PaymentSummary {
	return PaymentSummary{
		Status:          t.Status,
		Reference:       t.Reference,
		TransactionCode: t.Code,
		GrossAmount:     t.GrossAmount.StringFixed(2),
	}
}
