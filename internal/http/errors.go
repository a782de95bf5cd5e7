package httpapi

import (
	"errors"
	"net/http"

	"github.com/djval79/caresync1/internal/service"
	"github.com/djval79/caresync1/internal/state"

	"go.uber.org/zap"
)

func isClientError(err error) bool {
	return errors.Is(err, service.ErrInvalidInput) ||
		errors.Is(err, service.ErrShiftNotFound) ||
		errors.Is(err, service.ErrStaffNotFound) ||
		errors.Is(err, service.ErrClientNotFound) ||
		errors.Is(err, service.ErrMedicationNotFound)
}

// writeServiceError business failures go back verbatim, anything else is logged
// and masked.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if isClientError(err) {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	logger.Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusOK, Fail("internal error"))
}

// respond writes v on success. A persistence-only failure still answers Ok
// because the change is live in memory.
func respond[T any](w http.ResponseWriter, logger *zap.Logger, v T, err error) {
	if err != nil {
		if !errors.Is(err, state.ErrPersist) {
			writeServiceError(w, logger, err)
			return
		}
		logger.Warn("change applied but not persisted", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, Ok(v))
}
