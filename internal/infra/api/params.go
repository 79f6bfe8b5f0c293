package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"telecom-ledger/internal/domain"
	"telecom-ledger/internal/domain/model"
)

const dateOnly = "2006-01-02"

// listPaymentsParams mirrors the GET /payments query string. Absent
// parameters stay nil and fall back to the query defaults.
type listPaymentsParams struct {
	Page          *int    `json:"page,omitempty"`
	PageSize      *int    `json:"pageSize,omitempty"`
	Search        *string `json:"search,omitempty"`
	Status        *string `json:"status,omitempty"`
	PaymentMethod *string `json:"paymentMethod,omitempty"`
	StartDate     *string `json:"startDate,omitempty"`
	EndDate       *string `json:"endDate,omitempty"`
	UserID        *string `json:"userId,omitempty"`
	SortBy        *string `json:"sortBy,omitempty"`
	SortOrder     *string `json:"sortOrder,omitempty"`
}

func bindListPaymentsParams(r *http.Request) (model.QueryParams, error) {
	var p listPaymentsParams
	q := r.URL.Query()
	bindings := []struct {
		name string
		dest any
	}{
		{"page", &p.Page},
		{"pageSize", &p.PageSize},
		{"search", &p.Search},
		{"status", &p.Status},
		{"paymentMethod", &p.PaymentMethod},
		{"startDate", &p.StartDate},
		{"endDate", &p.EndDate},
		{"userId", &p.UserID},
		{"sortBy", &p.SortBy},
		{"sortOrder", &p.SortOrder},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, q, b.dest); err != nil {
			return model.QueryParams{}, fmt.Errorf("%w: invalid format for parameter %s", domain.ErrValidation, b.name)
		}
	}

	out := model.DefaultQueryParams()
	if p.Page != nil {
		out.Page = *p.Page
	}
	if p.PageSize != nil {
		out.PageSize = *p.PageSize
	}
	out.Search = deref(p.Search)
	out.Status = deref(p.Status)
	out.PaymentMethod = deref(p.PaymentMethod)
	out.UserID = deref(p.UserID)
	out.SortBy = deref(p.SortBy)
	out.SortOrder = deref(p.SortOrder)

	var err error
	if out.StartDate, err = parseDateParam("startDate", p.StartDate); err != nil {
		return model.QueryParams{}, err
	}
	if out.EndDate, err = parseDateParam("endDate", p.EndDate); err != nil {
		return model.QueryParams{}, err
	}
	return out, nil
}

// parseDateParam accepts RFC 3339 timestamps or a bare YYYY-MM-DD, which
// means midnight UTC.
func parseDateParam(name string, v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, *v); err == nil {
		return &t, nil
	}
	if t, err := time.ParseInLocation(dateOnly, *v, time.UTC); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("%w: %s must be RFC 3339 or YYYY-MM-DD", domain.ErrValidation, name)
}

// bindDays reads ?days=, defaulting to def and bounded to [0, maxDays].
func bindDays(r *http.Request, def, maxDays int) (int, error) {
	var days *int
	if err := runtime.BindQueryParameter("form", true, false, "days", r.URL.Query(), &days); err != nil {
		return 0, fmt.Errorf("%w: invalid format for parameter days", domain.ErrValidation)
	}
	if days == nil {
		return def, nil
	}
	if *days < 0 || *days > maxDays {
		return 0, fmt.Errorf("%w: days must be within [0,%d]", domain.ErrValidation, maxDays)
	}
	return *days, nil
}

func bindPaymentID(r *http.Request) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil || id == "" {
		return "", fmt.Errorf("%w: invalid payment id", domain.ErrValidation)
	}
	return id, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
