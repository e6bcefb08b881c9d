package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mdappsolutions/bellasjob-api/internal/api/httpx"
	"github.com/mdappsolutions/bellasjob-api/internal/api/validate"
	"github.com/mdappsolutions/bellasjob-api/internal/auth"
	"github.com/mdappsolutions/bellasjob-api/internal/middleware"
	"github.com/mdappsolutions/bellasjob-api/internal/services"
)

type SetupCompleter interface {
	CompleteSetup(ctx context.Context, token, password string) error
}

type AccountHandler struct {
	svc SetupCompleter
	log *slog.Logger
}

func NewAccountHandler(svc SetupCompleter, log *slog.Logger) *AccountHandler {
	return &AccountHandler{svc: svc, log: log}
}

type setupReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AccountHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var req setupReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request", nil)
		return
	}
	if errs := validate.Collect(
		validate.Required("token", req.Token),
		validate.MinLen("password", req.Password, services.MinPasswordLen),
	); len(errs) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "invalid request", errs)
		return
	}

	err := h.svc.CompleteSetup(r.Context(), req.Token, req.Password)
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, services.ErrSetupTokenUsed):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired setup link", nil)
	case errors.Is(err, services.ErrWeakPassword):
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "invalid request", nil)
	default:
		h.log.Error("account setup", "request_id", middleware.RequestIDFrom(r.Context()), "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}
