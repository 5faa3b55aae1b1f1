// Package respond writes JSON bodies and maps domain errors to HTTP
// statuses. Error bodies have the shape {"detail": "..."}.
package respond

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dom/storyverse/internal/domain"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type ErrorResponse struct {
	Detail string            `json:"detail"`
	Errors map[string]string `json:"errors,omitempty"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func NoContent(w http.ResponseWriter, r *http.Request) {
	render.NoContent(w, r)
}

// Error writes err as a JSON error. Errors without a domain kind are logged
// and reported as a generic 500.
func Error(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status := http.StatusInternalServerError
	body := ErrorResponse{Detail: "Internal server error"}

	var de *domain.Error
	if errors.As(err, &de) && de.Kind != domain.KindInternal {
		status = StatusFor(de.Kind)
		body.Detail = de.Message
		body.Errors = de.Fields
		if body.Detail == "" {
			body.Detail = http.StatusText(status)
		}
	} else {
		log.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", chiMiddleware.GetReqID(r.Context())),
			slog.Any("error", err),
		)
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	JSON(w, r, status, body)
}

func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindBadRequest:
		return http.StatusBadRequest
	case domain.KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
