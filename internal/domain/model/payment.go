package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"telecom-ledger/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"    // created by the initiation flow
	PaymentStatusProcessing PaymentStatus = "processing" // handed to the gateway
	PaymentStatusCompleted  PaymentStatus = "completed"  // money captured
	PaymentStatusFailed     PaymentStatus = "failed"     // gateway rejected
	PaymentStatusCancelled  PaymentStatus = "cancelled"  // admin/user cancel
	PaymentStatusRefunded   PaymentStatus = "refunded"   // terminal, reached from completed only
)

var paymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusProcessing,
	PaymentStatusCompleted,
	PaymentStatusFailed,
	PaymentStatusCancelled,
	PaymentStatusRefunded,
}

// PaymentStatuses returns every status in lifecycle order.
func PaymentStatuses() []PaymentStatus {
	out := make([]PaymentStatus, len(paymentStatuses))
	copy(out, paymentStatuses)
	return out
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	st := PaymentStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown payment status %q", domain.ErrValidation, s)
	}
	return st, nil
}

func (s PaymentStatus) Valid() bool {
	for _, v := range paymentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s *PaymentStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := ParsePaymentStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type PaymentMethod string

const (
	PaymentMethodStripe       PaymentMethod = "stripe"
	PaymentMethodPayPal       PaymentMethod = "paypal"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodCrypto       PaymentMethod = "crypto"
	PaymentMethodWallet       PaymentMethod = "wallet"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

var paymentMethods = []PaymentMethod{
	PaymentMethodStripe,
	PaymentMethodPayPal,
	PaymentMethodCard,
	PaymentMethodCrypto,
	PaymentMethodWallet,
	PaymentMethodBankTransfer,
}

func PaymentMethods() []PaymentMethod {
	out := make([]PaymentMethod, len(paymentMethods))
	copy(out, paymentMethods)
	return out
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: unknown payment method %q", domain.ErrValidation, s)
	}
	return m, nil
}

func (m PaymentMethod) Valid() bool {
	for _, v := range paymentMethods {
		if m == v {
			return true
		}
	}
	return false
}

func (m *PaymentMethod) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := ParsePaymentMethod(raw)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// transitions lists the statuses reachable from each status.
var transitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusProcessing, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusProcessing: {PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusCompleted:  {PaymentStatusRefunded},
}

func CanTransition(from, to PaymentStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Payment is a single financial transaction record.
type Payment struct {
	ID            string `json:"id"`
	TransactionID string `json:"transactionId"`

	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`

	PlanID   string  `json:"planId"`
	PlanName string  `json:"planName"`
	ESIMID   *string `json:"esimId,omitempty"`

	Amount        Money         `json:"amount"`
	Currency      string        `json:"currency"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Status        PaymentStatus `json:"status"`

	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	FailedAt    *time.Time `json:"failedAt,omitempty"`
	RefundedAt  *time.Time `json:"refundedAt,omitempty"`

	RefundReason  *string `json:"refundReason,omitempty"`
	RefundAmount  *Money  `json:"refundAmount,omitempty"`
	FailureReason *string `json:"failureReason,omitempty"`
	InvoiceID     *string `json:"invoiceId,omitempty"`

	Metadata Metadata `json:"metadata,omitempty"`

	// Version is bumped by the store on every mutation.
	Version int64 `json:"-"`
}

// Clone returns a deep copy so snapshots never alias store-owned records.
func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	cp := *p
	cp.ESIMID = cloneStr(p.ESIMID)
	cp.CompletedAt = cloneTime(p.CompletedAt)
	cp.FailedAt = cloneTime(p.FailedAt)
	cp.RefundedAt = cloneTime(p.RefundedAt)
	cp.RefundReason = cloneStr(p.RefundReason)
	cp.FailureReason = cloneStr(p.FailureReason)
	cp.InvoiceID = cloneStr(p.InvoiceID)
	if p.RefundAmount != nil {
		v := *p.RefundAmount
		cp.RefundAmount = &v
	}
	cp.Metadata = p.Metadata.Clone()
	return &cp
}

// Validate checks the record-level invariants a stored payment must satisfy.
func (p *Payment) Validate() error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: payment id is required", domain.ErrValidation)
	case p.TransactionID == "":
		return fmt.Errorf("%w: transaction id is required", domain.ErrValidation)
	case p.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	case !validCurrency(p.Currency):
		return fmt.Errorf("%w: currency %q is not an ISO code", domain.ErrValidation, p.Currency)
	case !p.Status.Valid():
		return fmt.Errorf("%w: unknown payment status %q", domain.ErrValidation, p.Status)
	case !p.PaymentMethod.Valid():
		return fmt.Errorf("%w: unknown payment method %q", domain.ErrValidation, p.PaymentMethod)
	case p.CreatedAt.IsZero():
		return fmt.Errorf("%w: createdAt is required", domain.ErrValidation)
	case p.CompletedAt != nil && p.FailedAt != nil:
		return fmt.Errorf("%w: completedAt and failedAt are exclusive", domain.ErrValidation)
	}

	refunded := p.Status == PaymentStatusRefunded
	if refunded != (p.RefundAmount != nil) || refunded != (p.RefundReason != nil) || refunded != (p.RefundedAt != nil) {
		return fmt.Errorf("%w: refund fields must be set exactly when status is refunded", domain.ErrValidation)
	}
	if p.RefundAmount != nil && (*p.RefundAmount <= 0 || *p.RefundAmount > p.Amount) {
		return fmt.Errorf("%w: refund amount %s exceeds %s", domain.ErrInvalidAmount, p.RefundAmount, p.Amount)
	}
	if p.FailureReason != nil && p.Status != PaymentStatusFailed {
		return fmt.Errorf("%w: failureReason is only valid on failed payments", domain.ErrValidation)
	}
	return nil
}

func (p *Payment) transition(to PaymentStatus) error {
	if !CanTransition(p.Status, to) {
		return fmt.Errorf("%w: cannot move payment %s from %s to %s", domain.ErrInvalidState, p.ID, p.Status, to)
	}
	p.Status = to
	return nil
}

func (p *Payment) Process() error {
	return p.transition(PaymentStatusProcessing)
}

func (p *Payment) Complete(at time.Time) error {
	if err := p.transition(PaymentStatusCompleted); err != nil {
		return err
	}
	p.CompletedAt = &at
	return nil
}

func (p *Payment) Fail(reason string, at time.Time) error {
	if err := p.transition(PaymentStatusFailed); err != nil {
		return err
	}
	p.FailedAt = &at
	p.FailureReason = &reason
	return nil
}

// Cancel closes a payment that never reached the gateway. The cancellation
// time is recorded on completedAt since the payment has left pending.
func (p *Payment) Cancel(at time.Time) error {
	if err := p.transition(PaymentStatusCancelled); err != nil {
		return err
	}
	p.CompletedAt = &at
	return nil
}

// Refund moves a completed payment to refunded. The whole record flips
// regardless of amount; partial refunds are not tracked.
func (p *Payment) Refund(amount Money, reason string, at time.Time) error {
	if p.Status != PaymentStatusCompleted {
		return fmt.Errorf("%w: payment %s is %s, only completed payments can be refunded", domain.ErrInvalidState, p.ID, p.Status)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: refund amount must be positive", domain.ErrInvalidAmount)
	}
	if amount > p.Amount {
		return fmt.Errorf("%w: refund amount %s exceeds payment amount %s", domain.ErrInvalidAmount, amount, p.Amount)
	}
	if err := p.transition(PaymentStatusRefunded); err != nil {
		return err
	}
	p.RefundedAt = &at
	p.RefundReason = &reason
	p.RefundAmount = &amount
	return nil
}

func validCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
