package services

import (
	"errors"
	"log/slog"
	"net/http"
	"talentmarket/marketplace/schema"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func CodedError(err error, code int) error {
	return &codedError{err: err, code: code}
}

func GetResponseCode(err error) int {
	var cerr *codedError
	if errors.As(err, &cerr) {
		return cerr.code
	}
	slog.Error("non coded error passed to GetResponseCode", "error", err)
	return http.StatusInternalServerError
}

// companyForUser resolves the company owned by the caller. Every company
// scoped endpoint goes through this to apply the ownership gate.
func companyForUser(txn *gorm.DB, userId uuid.UUID) (schema.Company, error) {
	company, err := schema.GetCompanyByOwner(userId, txn)
	if err != nil {
		if errors.Is(err, schema.ErrCompanyNotFound) {
			return company, CodedError(errors.New("user does not own a company"), http.StatusForbidden)
		}
		return company, CodedError(err, http.StatusInternalServerError)
	}
	return company, nil
}

func checkCompanyExists(txn *gorm.DB, companyId uuid.UUID) error {
	if _, err := schema.GetCompany(companyId, txn); err != nil {
		if errors.Is(err, schema.ErrCompanyNotFound) {
			return CodedError(err, http.StatusNotFound)
		}
		return CodedError(err, http.StatusInternalServerError)
	}
	return nil
}

func checkProjectExists(txn *gorm.DB, projectId uuid.UUID) error {
	if _, err := schema.GetProject(projectId, txn, false); err != nil {
		if errors.Is(err, schema.ErrProjectNotFound) {
			return CodedError(err, http.StatusNotFound)
		}
		return CodedError(err, http.StatusInternalServerError)
	}
	return nil
}

// sumPaidAmounts totals paid payment rows with decimal arithmetic. Summation
// happens in Go rather than in SQL so monetary amounts never pass through
// floating point, and so the result is identical across database drivers.
func sumPaidAmounts(db *gorm.DB, scope func(*gorm.DB) *gorm.DB) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	query := scope(db.Model(&schema.Payment{}).Where("status = ?", schema.PaymentPaid))
	result := query.Pluck("amount", &amounts)
	if result.Error != nil {
		slog.Error("sql error summing payment amounts", "error", result.Error)
		return decimal.Zero, CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
	}

	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return total, nil
}
