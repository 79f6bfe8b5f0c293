// Package seed generates sample payments for demos and local development.
package seed

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"telecom-ledger/internal/domain/model"
)

// Window is how far back generated payments reach.
const Window = 90 * 24 * time.Hour

type plan struct {
	id    string
	name  string
	kind  string // esim|number|wallet
	price model.Money
	gb    float64
	area  string
}

var plans = []plan{
	{"esim-eu-5", "Europe eSIM 5GB", "esim", 1499, 5, "EU"},
	{"esim-eu-20", "Europe eSIM 20GB", "esim", 3999, 20, "EU"},
	{"esim-us-10", "USA eSIM 10GB", "esim", 2499, 10, "US"},
	{"esim-global-3", "Global eSIM 3GB", "esim", 1999, 3, "GLOBAL"},
	{"num-us-month", "US Virtual Number (1 month)", "number", 499, 0, "US"},
	{"num-uk-month", "UK Virtual Number (1 month)", "number", 599, 0, "GB"},
	{"num-de-year", "DE Virtual Number (12 months)", "number", 4999, 0, "DE"},
	{"wallet-10", "Wallet Top-up 10", "wallet", 1000, 0, ""},
	{"wallet-25", "Wallet Top-up 25", "wallet", 2500, 0, ""},
	{"wallet-50", "Wallet Top-up 50", "wallet", 5000, 0, ""},
}

type weighted[T any] struct {
	v T
	w int
}

var statuses = []weighted[model.PaymentStatus]{
	{model.PaymentStatusCompleted, 70},
	{model.PaymentStatusFailed, 10},
	{model.PaymentStatusPending, 7},
	{model.PaymentStatusRefunded, 6},
	{model.PaymentStatusProcessing, 4},
	{model.PaymentStatusCancelled, 3},
}

var methods = []weighted[model.PaymentMethod]{
	{model.PaymentMethodCard, 35},
	{model.PaymentMethodStripe, 25},
	{model.PaymentMethodPayPal, 18},
	{model.PaymentMethodWallet, 12},
	{model.PaymentMethodCrypto, 5},
	{model.PaymentMethodBankTransfer, 5},
}

var (
	firstNames = []string{"Ada", "Grace", "Linus", "Margaret", "Alan", "Barbara", "Ken", "Radia", "Dennis", "Frances", "Tim", "Hedy"}
	lastNames  = []string{"Lovelace", "Hopper", "Torvalds", "Hamilton", "Turing", "Liskov", "Thompson", "Perlman", "Ritchie", "Allen", "Berners-Lee", "Lamarr"}
	failures   = []string{"card declined", "insufficient funds", "3-D Secure authentication failed", "gateway timeout", "suspected fraud"}
	refunds    = []string{"customer request", "duplicate charge", "eSIM activation failed", "number not provisioned"}
	channels   = []string{"web", "ios", "android"}
)

// Generate returns n valid payments created within Window before now,
// oldest first. The same rng seed always yields the same payments.
func Generate(n int, now time.Time, rng *rand.Rand) ([]*model.Payment, error) {
	if n <= 0 {
		return []*model.Payment{}, nil
	}
	now = now.UTC()
	out := make([]*model.Payment, 0, n)
	for i := 0; i < n; i++ {
		p, err := generateOne(i, now, rng)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sortByCreated(out)
	return out, nil
}

func generateOne(i int, now time.Time, rng *rand.Rand) (*model.Payment, error) {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return nil, err
	}
	pl := plans[rng.Intn(len(plans))]
	user := rng.Intn(40)
	first, last := firstNames[user%len(firstNames)], lastNames[(user/len(firstNames)+user)%len(lastNames)]
	created := now.Add(-time.Duration(rng.Int63n(int64(Window)))).Truncate(time.Second)

	p := &model.Payment{
		ID:            id.String(),
		TransactionID: fmt.Sprintf("TXN-%s-%06d", created.Format("20060102"), i+1),
		UserID:        fmt.Sprintf("user-%03d", user+1),
		UserName:      first + " " + last,
		UserEmail:     strings.ToLower(fmt.Sprintf("%s.%s%d@example.com", first, strings.ReplaceAll(last, "-", ""), user+1)),
		PlanID:        pl.id,
		PlanName:      pl.name,
		Amount:        pl.price,
		Currency:      "USD",
		PaymentMethod: pick(rng, methods),
		Status:        model.PaymentStatusPending,
		CreatedAt:     created,
		Metadata: model.Metadata{
			"productType": model.MetaStr(pl.kind),
			"channel":     model.MetaStr(channels[rng.Intn(len(channels))]),
		},
	}
	switch pl.kind {
	case "esim":
		esim := "ESIM-" + strings.ToUpper(id.String()[:8])
		p.ESIMID = &esim
		p.Metadata["dataGb"] = model.MetaNum(pl.gb)
		p.Metadata["region"] = model.MetaStr(pl.area)
	case "number":
		p.Metadata["country"] = model.MetaStr(pl.area)
		p.Metadata["autoRenew"] = model.MetaBoolean(rng.Intn(2) == 0)
	}

	if err := settle(p, pick(rng, statuses), now, rng); err != nil {
		return nil, err
	}
	return p, p.Validate()
}

// settle walks p through the lifecycle to the target status so every
// generated record obeys the transition rules. No timestamp passes now.
func settle(p *model.Payment, target model.PaymentStatus, now time.Time, rng *rand.Rand) error {
	clamp := func(t time.Time) time.Time {
		if t.After(now) {
			return now
		}
		return t
	}
	after := func(d time.Duration) time.Time {
		return clamp(p.CreatedAt.Add(time.Second + time.Duration(rng.Int63n(int64(d)))))
	}
	switch target {
	case model.PaymentStatusPending:
		return nil
	case model.PaymentStatusProcessing:
		return p.Process()
	case model.PaymentStatusCompleted:
		return p.Complete(after(5 * time.Minute))
	case model.PaymentStatusFailed:
		return p.Fail(failures[rng.Intn(len(failures))], after(2*time.Minute))
	case model.PaymentStatusCancelled:
		return p.Cancel(after(30 * time.Minute))
	case model.PaymentStatusRefunded:
		if err := p.Complete(after(5 * time.Minute)); err != nil {
			return err
		}
		amount := p.Amount
		if rng.Intn(4) == 0 {
			amount = p.Amount / 2
		}
		at := clamp(p.CompletedAt.Add(time.Duration(1+rng.Intn(72)) * time.Hour))
		return p.Refund(amount, refunds[rng.Intn(len(refunds))], at)
	}
	return fmt.Errorf("seed: unsupported status %q", target)
}

func sortByCreated(ps []*model.Payment) {
	slices.SortStableFunc(ps, func(a, b *model.Payment) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

func pick[T any](rng *rand.Rand, items []weighted[T]) T {
	total := 0
	for _, it := range items {
		total += it.w
	}
	n := rng.Intn(total)
	for _, it := range items {
		if n < it.w {
			return it.v
		}
		n -= it.w
	}
	return items[len(items)-1].v
}
