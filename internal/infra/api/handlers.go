package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"telecom-ledger/internal/domain"
	"telecom-ledger/internal/domain/model"
	"telecom-ledger/internal/infra/logging"
)

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type refundBody struct {
	Amount     model.Money `json:"amount"`
	Reason     string      `json:"reason"`
	RefundedBy string      `json:"refundedBy"`
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	if s.opts.APIKey == "" {
		s.log.Error().Msg("admin API key is not configured")
		writeError(w, http.StatusForbidden, "token issuance disabled")
		return
	}
	key := r.Header.Get("X-Admin-Key")
	if key == "" || !keysEqual(key, s.opts.APIKey) {
		writeError(w, http.StatusUnauthorized, "invalid admin key")
		return
	}
	tok, exp, err := s.auth.Mint(w, adminRole)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: tok, ExpiresAt: exp.UTC()})
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	params, err := bindListPaymentsParams(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.ledger.Query(r.Context(), params)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) getPayment(w http.ResponseWriter, r *http.Request) {
	id, err := bindPaymentID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.ledger.GetByID(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) paymentStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.ledger.Stats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) methodStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.ledger.PaymentMethodStats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) revenueByPeriod(w http.ResponseWriter, r *http.Request) {
	days, err := bindDays(r, defaultRevenueDays, s.opts.MaxPeriodDays)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	buckets, err := s.ledger.RevenueByPeriod(r.Context(), days)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

func (s *Server) generateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := bindPaymentID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	inv, err := s.ledger.GenerateInvoice(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) refund(w http.ResponseWriter, r *http.Request) {
	id, err := bindPaymentID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if r.Body == nil || r.Body == http.NoBody {
		writeError(w, http.StatusBadRequest, "missing request body")
		return
	}
	var body refundBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	by := strings.TrimSpace(body.RefundedBy)
	if by == "" {
		by = logging.Actor(r.Context())
	}
	p, err := s.ledger.Refund(r.Context(), model.RefundRequest{
		PaymentID:  id,
		Amount:     body.Amount,
		Reason:     body.Reason,
		RefundedBy: by,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as JSON; server errors are logged and their detail withheld.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, code, "internal error")
		return
	}
	writeError(w, code, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
