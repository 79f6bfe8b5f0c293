package usecase

import (
	"cmp"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"telecom-ledger/internal/domain"
	"telecom-ledger/internal/domain/model"
	"telecom-ledger/internal/infra/logging"
)

// Query filters, sorts and paginates the payment set.
func (u *ledgerUC) Query(ctx context.Context, params model.QueryParams) (res *model.PaginatedResult, err error) {
	defer logging.TraceDuration(u.log, "LedgerUC.Query")()
	defer u.observe("query", time.Now(), &err)

	q, err := compileQuery(params)
	if err != nil {
		return nil, err
	}
	all, err := u.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*model.Payment, 0, len(all))
	for _, p := range all {
		if q.match(p) {
			matched = append(matched, p)
		}
	}
	if q.compare != nil {
		sort.SliceStable(matched, func(i, j int) bool {
			return q.compare(matched[i], matched[j]) < 0
		})
	}
	return paginate(matched, params.Page, params.PageSize), nil
}

type compiledQuery struct {
	search  string
	status  model.PaymentStatus
	method  model.PaymentMethod
	start   *time.Time
	end     *time.Time
	userID  string
	compare func(a, b *model.Payment) int
}

func compileQuery(params model.QueryParams) (*compiledQuery, error) {
	if params.Page <= 0 {
		return nil, fmt.Errorf("%w: page must be >= 1, got %d", domain.ErrValidation, params.Page)
	}
	if params.PageSize <= 0 {
		return nil, fmt.Errorf("%w: pageSize must be >= 1, got %d", domain.ErrValidation, params.PageSize)
	}

	q := &compiledQuery{
		search: strings.ToLower(params.Search),
		start:  params.StartDate,
		end:    params.EndDate,
		userID: params.UserID,
	}
	if params.Status != "" && !strings.EqualFold(params.Status, model.FilterAll) {
		st, err := model.ParsePaymentStatus(params.Status)
		if err != nil {
			return nil, err
		}
		q.status = st
	}
	if params.PaymentMethod != "" && !strings.EqualFold(params.PaymentMethod, model.FilterAll) {
		m, err := model.ParsePaymentMethod(params.PaymentMethod)
		if err != nil {
			return nil, err
		}
		q.method = m
	}

	desc := false
	switch strings.ToLower(params.SortOrder) {
	case "", model.SortAsc:
	case model.SortDesc:
		desc = true
	default:
		return nil, fmt.Errorf("%w: sortOrder must be asc or desc, got %q", domain.ErrValidation, params.SortOrder)
	}
	if params.SortBy != "" {
		cmpFn, ok := sortFields[params.SortBy]
		if !ok {
			return nil, fmt.Errorf("%w: cannot sort by %q", domain.ErrValidation, params.SortBy)
		}
		if desc {
			q.compare = func(a, b *model.Payment) int { return cmpFn(b, a) }
		} else {
			q.compare = cmpFn
		}
	}
	return q, nil
}

func (q *compiledQuery) match(p *model.Payment) bool {
	if q.search != "" &&
		!strings.Contains(strings.ToLower(p.TransactionID), q.search) &&
		!strings.Contains(strings.ToLower(p.UserName), q.search) &&
		!strings.Contains(strings.ToLower(p.UserEmail), q.search) {
		return false
	}
	if q.status != "" && p.Status != q.status {
		return false
	}
	if q.method != "" && p.PaymentMethod != q.method {
		return false
	}
	if q.start != nil && p.CreatedAt.Before(*q.start) {
		return false
	}
	if q.end != nil && p.CreatedAt.After(*q.end) {
		return false
	}
	if q.userID != "" && p.UserID != q.userID {
		return false
	}
	return true
}

var sortFields = map[string]func(a, b *model.Payment) int{
	model.SortByCreatedAt:     func(a, b *model.Payment) int { return a.CreatedAt.Compare(b.CreatedAt) },
	model.SortByCompletedAt:   func(a, b *model.Payment) int { return compareTimePtr(a.CompletedAt, b.CompletedAt) },
	model.SortByAmount:        func(a, b *model.Payment) int { return cmp.Compare(a.Amount, b.Amount) },
	model.SortByStatus:        func(a, b *model.Payment) int { return cmp.Compare(a.Status, b.Status) },
	model.SortByPaymentMethod: func(a, b *model.Payment) int { return cmp.Compare(a.PaymentMethod, b.PaymentMethod) },
	model.SortByUserName:      func(a, b *model.Payment) int { return cmp.Compare(a.UserName, b.UserName) },
	model.SortByUserEmail:     func(a, b *model.Payment) int { return cmp.Compare(a.UserEmail, b.UserEmail) },
	model.SortByTransactionID: func(a, b *model.Payment) int { return cmp.Compare(a.TransactionID, b.TransactionID) },
	model.SortByPlanName:      func(a, b *model.Payment) int { return cmp.Compare(a.PlanName, b.PlanName) },
}

// compareTimePtr orders unset times first.
func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}

// paginate returns the half-open window [(page-1)*size, page*size) of rows.
func paginate(rows []*model.Payment, page, size int) *model.PaginatedResult {
	total := len(rows)
	totalPages := total / size
	if total%size != 0 {
		totalPages++
	}
	res := &model.PaginatedResult{
		Data:       []*model.Payment{},
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
	}
	if page > totalPages {
		return res
	}
	start := (page - 1) * size
	end := start + min(size, total-start)
	res.Data = rows[start:end]
	return res
}
