package model

import "time"

const (
	DefaultPage     = 1
	DefaultPageSize = 10

	// FilterAll disables the status and payment method filters.
	FilterAll = "all"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// Sortable payment fields accepted in QueryParams.SortBy.
const (
	SortByCreatedAt     = "createdAt"
	SortByCompletedAt   = "completedAt"
	SortByAmount        = "amount"
	SortByStatus        = "status"
	SortByPaymentMethod = "paymentMethod"
	SortByUserName      = "userName"
	SortByUserEmail     = "userEmail"
	SortByTransactionID = "transactionId"
	SortByPlanName      = "planName"
)

// QueryParams is the filter/sort/pagination request of the query engine.
// Empty strings and nil times mean "not given".
type QueryParams struct {
	Page          int        `json:"page"`
	PageSize      int        `json:"pageSize"`
	Search        string     `json:"search,omitempty"`
	Status        string     `json:"status,omitempty"`
	PaymentMethod string     `json:"paymentMethod,omitempty"`
	StartDate     *time.Time `json:"startDate,omitempty"`
	EndDate       *time.Time `json:"endDate,omitempty"`
	UserID        string     `json:"userId,omitempty"`
	SortBy        string     `json:"sortBy,omitempty"`
	SortOrder     string     `json:"sortOrder,omitempty"`
}

// DefaultQueryParams returns the first page with the default page size.
func DefaultQueryParams() QueryParams {
	return QueryParams{Page: DefaultPage, PageSize: DefaultPageSize}
}

type PaginatedResult struct {
	Data       []*Payment `json:"data"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	TotalPages int        `json:"totalPages"`
}

// MethodBreakdown aggregates completed payments made with one method.
type MethodBreakdown struct {
	Count      int     `json:"count"`
	Amount     Money   `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type PaymentStats struct {
	TotalRevenue            Money                             `json:"totalRevenue"`
	TotalTransactions       int                               `json:"totalTransactions"`
	SuccessfulPayments      int                               `json:"successfulPayments"`
	FailedPayments          int                               `json:"failedPayments"`
	RefundedPayments        int                               `json:"refundedPayments"`
	RefundedAmount          Money                             `json:"refundedAmount"`
	SuccessRate             float64                           `json:"successRate"`
	AverageTransactionValue Money                             `json:"averageTransactionValue"`
	PaymentMethodBreakdown  map[PaymentMethod]MethodBreakdown `json:"paymentMethodBreakdown"`
	StatusCounts            map[PaymentStatus]int             `json:"statusCounts"`
}

type PaymentMethodStats struct {
	Method     PaymentMethod `json:"method"`
	Count      int           `json:"count"`
	Amount     Money         `json:"amount"`
	Percentage float64       `json:"percentage"`
}

// PeriodBucket is one calendar day of completed-payment revenue.
type PeriodBucket struct {
	Period       string `json:"period"`
	Revenue      Money  `json:"revenue"`
	Transactions int    `json:"transactions"`
	AverageValue Money  `json:"averageValue"`
}

// RefundRequest is consumed once by the refund processor and not retained.
type RefundRequest struct {
	PaymentID  string `json:"paymentId"`
	Amount     Money  `json:"amount"`
	Reason     string `json:"reason"`
	RefundedBy string `json:"refundedBy"`
}

// RefundIssued is published to the notification collaborator after a refund.
type RefundIssued struct {
	PaymentID     string    `json:"paymentId"`
	TransactionID string    `json:"transactionId"`
	UserID        string    `json:"userId"`
	Amount        Money     `json:"amount"`
	Currency      string    `json:"currency"`
	Reason        string    `json:"reason"`
	RefundedBy    string    `json:"refundedBy"`
	RefundedAt    time.Time `json:"refundedAt"`
}
