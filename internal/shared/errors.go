package shared

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a row failed domain constraints before any write.
	ErrValidation = errors.New("validation failed")
	// ErrDataUnavailable indicates one or more ledger reads failed; no partial
	// totals are ever surfaced.
	ErrDataUnavailable = errors.New("ledger data unavailable")
	// ErrInvalidRange indicates a malformed period token or end before start.
	ErrInvalidRange = errors.New("invalid period range")
	// ErrIncompleteAggregation indicates a statement was requested without a
	// completed aggregation result.
	ErrIncompleteAggregation = errors.New("aggregation incomplete")
)

// PartialTransferError reports a two-leg transfer whose second leg did not
// persist after the first leg succeeded. It carries enough detail for the
// caller to offer manual compensation; no automatic rollback is performed.
type PartialTransferError struct {
	TransferRef uuid.UUID
	OriginLegID int64
	FromSource  string
	ToSource    string
	Amount      decimal.Decimal
	AdminFee    decimal.Decimal
	Err         error
}

func (e *PartialTransferError) Error() string {
	return fmt.Sprintf("transfer %s: destination leg %s -> %s for %s failed after origin leg %d persisted: %v",
		e.TransferRef, e.FromSource, e.ToSource, e.Amount, e.OriginLegID, e.Err)
}

func (e *PartialTransferError) Unwrap() error { return e.Err }
