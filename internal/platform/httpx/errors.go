package httpx

import (
	"errors"
	"net/http"

	"github.com/kaskonter/kaskonter/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var partial *shared.PartialTransferError
	switch {
	case errors.As(err, &partial):
		ProblemWith(w, http.StatusInternalServerError, "Partial Transfer", partial.Error(), map[string]any{
			"transferRef": partial.TransferRef.String(),
			"originLegId": partial.OriginLegID,
			"fromSource":  partial.FromSource,
			"toSource":    partial.ToSource,
			"amount":      partial.Amount,
			"adminFee":    partial.AdminFee,
		})
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrInvalidRange):
		Problem(w, http.StatusBadRequest, "Invalid Range", err.Error())
	case errors.Is(err, shared.ErrIncompleteAggregation):
		Problem(w, http.StatusConflict, "Incomplete Aggregation", err.Error())
	case errors.Is(err, shared.ErrDataUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Data Unavailable", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
