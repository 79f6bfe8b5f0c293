package model

import "time"

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// InvoiceDueAfterDays is the fixed payment term from issue to due date.
const InvoiceDueAfterDays = 30

// InvoiceStatusFor maps a payment status onto the invoice it produces.
func InvoiceStatusFor(s PaymentStatus) InvoiceStatus {
	if s == PaymentStatusCompleted {
		return InvoiceStatusPaid
	}
	return InvoiceStatusSent
}

type InvoiceItem struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   Money  `json:"unitPrice"`
	Total       Money  `json:"total"`
}

// Invoice is derived from a Payment; it is never the source of truth.
type Invoice struct {
	InvoiceNumber string        `json:"invoiceNumber"`
	PaymentID     string        `json:"paymentId"`
	TransactionID string        `json:"transactionId"`
	UserID        string        `json:"userId"`
	UserName      string        `json:"userName"`
	UserEmail     string        `json:"userEmail"`
	Currency      string        `json:"currency"`
	Amount        Money         `json:"amount"`
	Tax           Money         `json:"tax"`
	Discount      Money         `json:"discount"`
	Total         Money         `json:"total"`
	Status        InvoiceStatus `json:"status"`
	IssuedDate    time.Time     `json:"issuedDate"`
	DueDate       time.Time     `json:"dueDate"`
	Items         []InvoiceItem `json:"items"`
}
