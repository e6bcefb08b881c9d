package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/gorilla/schema"

	"github.com/mdappsolutions/bellasjob-api/internal/api/httpx"
	"github.com/mdappsolutions/bellasjob-api/internal/api/validate"
	"github.com/mdappsolutions/bellasjob-api/internal/middleware"
	"github.com/mdappsolutions/bellasjob-api/internal/services"
)

const maxBodyBytes = 1 << 20

var formDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

type NotificationProcessor interface {
	Handle(ctx context.Context, notificationCode string) (services.Result, error)
}

type WebhookHandler struct {
	svc NotificationProcessor
	log *slog.Logger
}

func NewWebhookHandler(svc NotificationProcessor, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{svc: svc, log: log}
}

type notificationReq struct {
	NotificationCode string `json:"notificationCode" schema:"notificationCode"`
	NotificationType string `json:"notificationType" schema:"notificationType"`
}

// PagSeguro posts form-encoded bodies; JSON and the query string are
// accepted as well, the query string only as a fallback.
func decodeNotification(w http.ResponseWriter, r *http.Request) (notificationReq, error) {
	var req notificationReq
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return req, err
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		if err := formDecoder.Decode(&req, r.PostForm); err != nil {
			return req, err
		}
	}

	if strings.TrimSpace(req.NotificationCode) == "" {
		q := r.URL.Query()
		req.NotificationCode = q.Get("notificationCode")
		if req.NotificationType == "" {
			req.NotificationType = q.Get("notificationType")
		}
	}
	req.NotificationCode = strings.TrimSpace(req.NotificationCode)
	return req, nil
}

func (h *WebhookHandler) PagSeguro(w http.ResponseWriter, r *http.Request) {
	log := h.log.With("request_id", middleware.RequestIDFrom(r.Context()))

	req, err := decodeNotification(w, r)
	if err != nil {
		log.Warn("bad webhook body", "err", err)
		httpx.WriteText(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if ef := validate.Required("notificationCode", req.NotificationCode); ef != nil {
		httpx.WriteText(w, http.StatusBadRequest, "missing notificationCode")
		return
	}

	log.Debug("notification received", "notification_code", req.NotificationCode, "notification_type", req.NotificationType)

	res, err := h.svc.Handle(r.Context(), req.NotificationCode)
	switch {
	case errors.Is(err, services.ErrGatewayResponse):
		log.Error("pagseguro webhook", "notification_code", req.NotificationCode, "err", err)
		httpx.WriteText(w, http.StatusInternalServerError, "invalid pagseguro response")
		return
	case err != nil:
		log.Error("pagseguro webhook", "notification_code", req.NotificationCode, "err", err)
		httpx.WriteText(w, http.StatusInternalServerError, "server error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}
