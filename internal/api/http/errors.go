package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/shestoi/enrollhub/internal/service"
	"github.com/shestoi/enrollhub/platform/observability"
)

// errorResponse тело ответа с ошибкой
type errorResponse struct {
	Code   string            `json:"code"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

func statusOf(kind service.ErrorKind) int {
	switch kind {
	case service.KindValidation, service.KindInvalidState:
		return http.StatusBadRequest
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError отдаёт бизнес-ошибку с её кодом; всё остальное логируется и становится 500 без деталей
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	log := observability.Ctx(r.Context(), logger)

	var serr *service.Error
	if errors.As(err, &serr) {
		log.Debug("request rejected",
			zap.String("code", string(serr.Kind)),
			zap.String("detail", serr.Message),
		)
		writeJSON(w, statusOf(serr.Kind), errorResponse{
			Code:   string(serr.Kind),
			Detail: serr.Message,
			Fields: serr.Fields,
		})
		return
	}

	log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Code:   "INTERNAL",
		Detail: "internal server error",
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func badRequest(detail string, fields map[string]string) *service.Error {
	return &service.Error{Kind: service.KindValidation, Message: detail, Fields: fields}
}
