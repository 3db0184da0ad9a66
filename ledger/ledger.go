// Package ledger computes billing figures over a patient's treatment
// history: per-record balances, aggregate standing, and the shared
// owing/credit/settled classification used by every financial view.
package ledger

import (
	"fmt"

	"github.com/aecasagrande/clinic-app/model"
	"gorm.io/gorm"
)

const (
	// TaxRate is the HST fraction applied to every treatment subtotal.
	TaxRate = 0.13

	// SettlementTolerance is the absolute threshold below which a balance
	// is treated as zero. It absorbs floating-point drift from summing
	// many currency amounts.
	SettlementTolerance = 0.01
)

// Status classifies a balance.
type Status string

const (
	StatusOwing   Status = "OWING"
	StatusCredit  Status = "CREDIT"
	StatusSettled Status = "SETTLED"
)

// Classify maps a balance to its status using SettlementTolerance.
// Every caller, whether looking at a single record or an aggregate,
// must go through this function rather than comparing against zero.
func Classify(balance float64) Status {
	switch {
	case balance > SettlementTolerance:
		return StatusOwing
	case balance < -SettlementTolerance:
		return StatusCredit
	default:
		return StatusSettled
	}
}

// Standing summarizes a patient's financial position over a set of records.
type Standing struct {
	TotalBilled float64 `json:"total_billed"`
	TotalPaid   float64 `json:"total_paid"`
	Balance     float64 `json:"balance"`
	Status      Status  `json:"status"`
}

// ComputeStanding sums billed and paid amounts over records and classifies
// the resulting balance. An empty slice yields a zeroed, settled standing.
func ComputeStanding(records []model.Treatment) Standing {
	var s Standing
	for _, r := range records {
		s.TotalBilled += r.Total
		s.TotalPaid += r.PaymentAmount
	}
	s.Balance = s.TotalBilled - s.TotalPaid
	s.Status = Classify(s.Balance)
	return s
}

// RecordBalance returns a single record's balance: total minus payment.
func RecordBalance(r model.Treatment) float64 {
	return r.Total - r.PaymentAmount
}

// DateRange bounds a selection by treatment date, inclusive on both ends.
// Dates use the "2006-01-02" format stored on records.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PeriodLabel renders a range for statement headings. A nil range means
// the selection covered the patient's entire history.
func PeriodLabel(dr *DateRange) string {
	if dr == nil {
		return "ALL TIME"
	}
	return fmt.Sprintf("%s to %s", dr.From, dr.To)
}

// SelectRecords fetches a patient's treatments ordered by treatment date
// descending, oldest-inserted first within a day. A nil range skips date
// filtering entirely rather than applying an open-ended one.
func SelectRecords(db *gorm.DB, patientID uint, dr *DateRange) ([]model.Treatment, error) {
	var records []model.Treatment
	query := db.Where("patient_id = ?", patientID)
	if dr != nil {
		query = query.Where("treatment_date BETWEEN ? AND ?", dr.From, dr.To)
	}
	if err := query.Order("treatment_date DESC, id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to select treatment records: %w", err)
	}
	return records, nil
}
