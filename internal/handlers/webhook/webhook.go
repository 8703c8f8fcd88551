package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quizarena/settlement/internal/dto"
	"github.com/quizarena/settlement/internal/service/reconciliationservice"
	"github.com/quizarena/settlement/pkg/utils"
	"go.uber.org/zap"
)

type Service interface {
	HandleEvent(ctx context.Context, payload dto.PaymentWebhookDTO) error
}

type WebhookHandler struct {
	reconciliationService Service
	secret                string
}

func New(reconciliationService Service, secret string) *WebhookHandler {
	return &WebhookHandler{
		reconciliationService: reconciliationService,
		secret:                secret,
	}
}

// PaymentWebhook godoc
//
//	@Summary		Payment provider callback
//	@Description	Apply a provider status event. Replays with a seen event id are acknowledged without effect; a non-200 answer makes the provider redeliver.
//	@Tags			Webhooks
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.PaymentWebhookDTO	true	"Provider event"
//	@Success		200		{string}	string			"Event applied or already seen"
//	@Failure		400		{object}	utils.Response	"Malformed or unknown event"
//	@Failure		401		{object}	utils.Response	"Bad webhook secret"
//	@Failure		500		{object}	utils.Response	"Event not applied, retry delivery"
//	@Router			/api/webhooks/payment [post]
func (h *WebhookHandler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" && r.Header.Get("X-Webhook-Secret") != h.secret {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var payload dto.PaymentWebhookDTO
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.reconciliationService.HandleEvent(r.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, reconciliationservice.ErrUnknownEventType),
			errors.Is(err, reconciliationservice.ErrInvalidEvent):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			// Not applied; the provider must retry delivery.
			zap.L().Error("webhook event not applied",
				zap.String("eventID", payload.EventID), zap.Error(err))
			utils.RespondWithError(w, http.StatusInternalServerError, "event not applied")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, "ok")
}
