package fixture

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradefixture/src/model"
	"tradefixture/src/repository"
)

// UpdatePath selects how the second write of the scenario is committed.
type UpdatePath string

const (
	// PathReplaceCommission assigns a freshly constructed Commission over
	// the fetched trade and commits the changed fields.
	PathReplaceCommission UpdatePath = "replace"
	// PathMutateCommission mutates the fetched trade's commission fields in
	// place and commits the full row.
	PathMutateCommission UpdatePath = "mutate"
)

// Mismatch records one field where the persisted row diverged from the
// values the scenario wrote.
type Mismatch struct {
	Field    string
	Expected string
	Actual   string
}

// Report is the outcome of one scenario run. Persisted is read back into a
// fresh instance after the final commit; Mismatches is empty when the row
// matches the written values field for field.
type Report struct {
	RunID      string
	Path       UpdatePath
	TradeID    uint
	Expected   model.Trade
	Persisted  model.Trade
	Mismatches []Mismatch
}

// Diverged reports whether the persisted row disagrees with the written values.
func (r *Report) Diverged() bool {
	return len(r.Mismatches) > 0
}

// Run executes the insert / read-back / update / read-back scenario against
// the given database and compares the final persisted row with the values
// the update wrote. Any step failing before the final comparison is fatal;
// a field divergence after it is recorded in the report, not returned as an
// error, so the caller can inspect expected-vs-actual per field.
func Run(ctx context.Context, db *gorm.DB, path UpdatePath) (*Report, error) {
	if path != PathReplaceCommission && path != PathMutateCommission {
		return nil, fmt.Errorf("unknown update path %q", path)
	}

	report := &Report{
		RunID: uuid.NewString(),
		Path:  path,
	}
	log := logger.WithFields(map[string]interface{}{
		"run_id": report.RunID,
		"path":   path,
	})

	repo := repository.NewTradeRepository(db)

	inserted := model.Trade{
		Quantity: decimal.NewFromInt(2),
		Price:    decimal.NewFromInt(3),
		Commission: model.Commission{
			Amount:   decimal.NewFromInt(1),
			Currency: "USD",
		},
	}
	if err := repo.Create(ctx, &inserted); err != nil {
		return nil, fmt.Errorf("insert trade: %w", err)
	}
	report.TradeID = inserted.ID
	log = log.WithField("trade_id", inserted.ID)
	log.Info("trade inserted")

	fetched, err := repo.FindByID(ctx, inserted.ID)
	if err != nil {
		return nil, fmt.Errorf("read back inserted trade: %w", err)
	}
	if fetched == nil {
		return nil, fmt.Errorf("trade %d not found after insert", inserted.ID)
	}
	if diffs := compareTrades(inserted, *fetched); len(diffs) > 0 {
		return nil, fmt.Errorf("read-back after insert diverged: %+v", diffs)
	}
	log.Info("read-back after insert matches inserted values")

	fetched.Quantity = decimal.NewFromInt(4)
	fetched.Price = decimal.NewFromInt(5)

	switch path {
	case PathReplaceCommission:
		// A brand-new value: its amount is left at the zero decimal, which
		// is exactly the column's declared default of 0.
		fetched.Commission = model.Commission{Currency: "EUR"}
		if err := repo.UpdateChanged(ctx, fetched); err != nil {
			return nil, fmt.Errorf("commit replaced commission: %w", err)
		}
	case PathMutateCommission:
		fetched.Commission.Amount = decimal.NewFromInt(0)
		fetched.Commission.Currency = "EUR"
		if err := repo.Save(ctx, fetched); err != nil {
			return nil, fmt.Errorf("commit mutated commission: %w", err)
		}
	}
	log.Info("update committed")

	report.Expected = model.Trade{
		ID:       inserted.ID,
		Quantity: decimal.NewFromInt(4),
		Price:    decimal.NewFromInt(5),
		Commission: model.Commission{
			Amount:   decimal.NewFromInt(0),
			Currency: "EUR",
		},
	}

	persisted, err := repo.FindByID(ctx, inserted.ID)
	if err != nil {
		return nil, fmt.Errorf("read back updated trade: %w", err)
	}
	if persisted == nil {
		return nil, fmt.Errorf("trade %d not found after update", inserted.ID)
	}
	report.Persisted = *persisted
	report.Mismatches = compareTrades(report.Expected, *persisted)

	for _, m := range report.Mismatches {
		log.WithFields(map[string]interface{}{
			"field":    m.Field,
			"expected": m.Expected,
			"actual":   m.Actual,
		}).Warn("persisted row diverged from written value")
	}
	if !report.Diverged() {
		log.Info("persisted row matches written values")
	}

	return report, nil
}

func compareTrades(expected, actual model.Trade) []Mismatch {
	var out []Mismatch
	if !expected.Quantity.Equal(actual.Quantity) {
		out = append(out, Mismatch{"quantity", expected.Quantity.String(), actual.Quantity.String()})
	}
	if !expected.Price.Equal(actual.Price) {
		out = append(out, Mismatch{"price", expected.Price.String(), actual.Price.String()})
	}
	if !expected.Commission.Amount.Equal(actual.Commission.Amount) {
		out = append(out, Mismatch{"commission_amount", expected.Commission.Amount.String(), actual.Commission.Amount.String()})
	}
	if expected.Commission.Currency != actual.Commission.Currency {
		out = append(out, Mismatch{"commission_currency", expected.Commission.Currency, actual.Commission.Currency})
	}
	return out
}
