package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Platitedengi/idistr-mvp/internal/cart"
	"github.com/Platitedengi/idistr-mvp/internal/gateway"
	"github.com/Platitedengi/idistr-mvp/internal/order"
	"github.com/Platitedengi/idistr-mvp/internal/terminal"
	"go.uber.org/zap"
)

const (
	msgIdentityRequired = "Откройте мини-приложение в Telegram (синяя кнопка) или добавьте ?tid=ВАШ_TELEGRAM_ID в адресную строку."
	msgOperatorNotFound = "ТП с таким telegram_id не найден в таблице sales_reps. Проверьте значение."
	msgLoadFailed       = "Ошибка загрузки данных. Попробуйте позже."
	msgOrderFailed      = "Ошибка создания заказа"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError converts session errors to HTTP answers.
func handleError(w http.ResponseWriter, err error) {
	var verr *order.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   verr.Message,
			Code:    verr.Code,
			Details: verr.Line,
		})
		return
	}

	switch {
	case errors.Is(err, terminal.ErrIdentityMissing):
		respondError(w, http.StatusUnauthorized, "identity_required", msgIdentityRequired)
	case errors.Is(err, terminal.ErrOperatorNotFound):
		respondError(w, http.StatusNotFound, "operator_not_found", msgOperatorNotFound)
	case errors.Is(err, terminal.ErrLoadFailed):
		respondJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   msgLoadFailed,
			Code:    "load_failed",
			Details: backendDetail(err),
		})
	case errors.Is(err, order.ErrSubmissionInFlight):
		respondError(w, http.StatusConflict, "submission_in_flight", err.Error())
	case errors.Is(err, order.ErrSubmissionFailed):
		respondJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   msgOrderFailed,
			Code:    "submission_failed",
			Details: backendDetail(err),
		})
	case errors.Is(err, terminal.ErrUnknownStore):
		respondError(w, http.StatusNotFound, "unknown_store", err.Error())
	case errors.Is(err, terminal.ErrUnknownProduct):
		respondError(w, http.StatusNotFound, "unknown_product", err.Error())
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusUnprocessableEntity, "invalid_quantity", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		zap.L().Error("unhandled error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// backendDetail is the server-provided detail of a gateway failure, passed
// through verbatim.
func backendDetail(err error) string {
	var apiErr *gateway.APIError
	if !errors.As(err, &apiErr) {
		return ""
	}
	if apiErr.Detail != "" {
		return apiErr.Detail
	}
	return apiErr.Error()
}
