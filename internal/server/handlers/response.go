package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/iudanet/vidtube/internal/models"
	"github.com/iudanet/vidtube/internal/server/apperr"
	"github.com/iudanet/vidtube/pkg/api"
)

const maxBodyBytes = 1 << 20

// WriteJSON encodes data with the given status.
func WriteJSON(w http.ResponseWriter, logger *slog.Logger, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// WriteError is the single place where errors become HTTP responses.
// Unclassified and internal errors are logged and rendered with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := apperr.Status(err)

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	} else {
		logger.DebugContext(r.Context(), "request rejected",
			slog.String("kind", apperr.KindOf(err).String()),
			slog.Any("error", err))
	}

	WriteJSON(w, logger, api.ErrorResponse{
		Error:   http.StatusText(status),
		Message: apperr.PublicMessage(err),
	}, status)
}

// decodeJSON reads a JSON body into dst. An empty body is accepted when optional is true.
func decodeJSON(r *http.Request, w http.ResponseWriter, dst any, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Wrap(apperr.KindBadRequest, "invalid request body", err)
	}
	return nil
}

func toAPIUser(u *models.PublicUser) api.User {
	if u == nil {
		return api.User{}
	}
	return api.User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
