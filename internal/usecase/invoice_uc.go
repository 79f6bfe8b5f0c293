package usecase

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"telecom-ledger/internal/domain/model"
	"telecom-ledger/internal/domain/ports/repository"
	"telecom-ledger/internal/infra/logging"
	"telecom-ledger/internal/infra/metrics"
)

func (u *ledgerUC) GenerateInvoice(ctx context.Context, paymentID string) (inv *model.Invoice, err error) {
	defer logging.TraceDuration(u.log, "LedgerUC.GenerateInvoice")()
	defer u.observe("invoice", time.Now(), &err)

	p, err := u.store.Get(ctx, repository.NoTX, paymentID)
	if err != nil {
		return nil, err
	}
	inv = buildInvoice(p, u.opts, "INV-"+ulid.Make().String())

	if u.opts.TrackInvoices {
		number := inv.InvoiceNumber
		if _, err := u.store.Apply(ctx, p.ID, func(rec *model.Payment) error {
			rec.InvoiceID = &number
			return nil
		}); err != nil {
			logging.With(logging.WithPaymentID(ctx, p.ID), u.log).Error().Err(err).Msg("record invoice number")
			return nil, err
		}
	}

	metrics.IncInvoice(string(inv.Status))
	return inv, nil
}

// buildInvoice derives every computed field from p; only the number varies between calls.
func buildInvoice(p *model.Payment, opts LedgerOptions, number string) *model.Invoice {
	tax := p.Amount.MulRate(opts.TaxRate)
	var discount model.Money
	issued := p.CreatedAt

	desc := p.PlanName
	if desc == "" {
		desc = p.PlanID
	}

	return &model.Invoice{
		InvoiceNumber: number,
		PaymentID:     p.ID,
		TransactionID: p.TransactionID,
		UserID:        p.UserID,
		UserName:      p.UserName,
		UserEmail:     p.UserEmail,
		Currency:      p.Currency,
		Amount:        p.Amount,
		Tax:           tax,
		Discount:      discount,
		Total:         p.Amount + tax - discount,
		Status:        model.InvoiceStatusFor(p.Status),
		IssuedDate:    issued,
		DueDate:       issued.AddDate(0, 0, model.InvoiceDueAfterDays),
		Items: []model.InvoiceItem{{
			Description: desc,
			Quantity:    1,
			UnitPrice:   p.Amount,
			Total:       p.Amount,
		}},
	}
}
