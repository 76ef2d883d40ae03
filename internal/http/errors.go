package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/rasheedharab/PayGuestMarketplace/internal/domain"
)

// statusForError 错误类型 -> HTTP 状态码
func statusForError(err error, caller domain.Caller) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		if caller.ID == "" {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError 5xx 不向客户端暴露内部细节
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, op string, err error) {
	status := statusForError(err, callerFrom(r.Context()))
	if status >= http.StatusInternalServerError && status != http.StatusGatewayTimeout {
		logger.Error(op+" failed", zap.Error(err))
		writeJSON(w, status, Fail("internal error"))
		return
	}
	logger.Debug(op+" rejected", zap.Int("status", status), zap.Error(err))
	writeJSON(w, status, Fail(err.Error()))
}
