package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/quizarena/settlement/internal/domain"
	"github.com/quizarena/settlement/internal/dto"
	"github.com/quizarena/settlement/internal/service/ledgerservice"
	"github.com/quizarena/settlement/internal/service/registrationservice"
	"github.com/quizarena/settlement/pkg/auth"
	"github.com/quizarena/settlement/pkg/utils"
	"go.uber.org/zap"
)

type LedgerService interface {
	ListWithdrawalsByStatus(ctx context.Context, status string, limit int) ([]domain.Withdrawal, error)
	ApproveWithdrawal(ctx context.Context, withdrawalID string) error
	SettleWithdrawal(ctx context.Context, withdrawalID, outcome string) error
	ListRefundsByStatus(ctx context.Context, status string) ([]domain.Refund, error)
	GetRefund(ctx context.Context, refundID string) (*domain.Refund, error)
	UpdateRefund(ctx context.Context, refundID string, status *string, priority *int, response *string) error
	ProcessRefund(ctx context.Context, refundID string, amountCents int64) error
}

type RegistrationService interface {
	ForceActivate(ctx context.Context, registrationID int) error
}

type AdminHandler struct {
	ledgerService       LedgerService
	registrationService RegistrationService
}

func New(ledgerService LedgerService, registrationService RegistrationService) *AdminHandler {
	return &AdminHandler{
		ledgerService:       ledgerService,
		registrationService: registrationService,
	}
}

const defaultListLimit = 100

// ListWithdrawals godoc
//
//	@Summary		List withdrawal requests
//	@Description	List withdrawal requests by status, oldest first.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			status	query		string	false	"Status filter"	default(pending)
//	@Success		200		{array}		dto.WithdrawalResponseDTO	"Withdrawals"
//	@Failure		401		{object}	utils.Response				"User not authorized"
//	@Failure		403		{object}	utils.Response				"Admin role required"
//	@Router			/api/admin/withdrawals [get]
func (h *AdminHandler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = domain.WithdrawalPending
	}

	withdrawals, err := h.ledgerService.ListWithdrawalsByStatus(r.Context(), status, defaultListLimit)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch withdrawals")
		return
	}

	response := make([]dto.WithdrawalResponseDTO, len(withdrawals))
	for i, wd := range withdrawals {
		response[i] = dto.WithdrawalResponseDTO{
			ID:          wd.ID,
			AmountCents: wd.AmountCents,
			Status:      wd.Status,
			RequestedAt: wd.RequestedAt,
			ResolvedAt:  wd.ResolvedAt,
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// ApproveWithdrawal godoc
//
//	@Summary		Approve a withdrawal
//	@Description	Move a pending withdrawal to approved so the payout dispatcher picks it up.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			withdrawalID	path		string	true	"Withdrawal id"
//	@Success		200				{string}	string			"Withdrawal approved"
//	@Failure		404				{object}	utils.Response	"Withdrawal not found"
//	@Failure		409				{object}	utils.Response	"Withdrawal not pending"
//	@Router			/api/admin/withdrawals/{withdrawalID}/approve [post]
func (h *AdminHandler) ApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	withdrawalID := chi.URLParam(r, "withdrawalID")

	if err := h.ledgerService.ApproveWithdrawal(r.Context(), withdrawalID); err != nil {
		respondLedgerError(w, err)
		return
	}
	h.audit(r, "withdrawal approved", zap.String("withdrawalID", withdrawalID))
	utils.RespondWithJSON(w, http.StatusOK, "withdrawal approved")
}

// SettleWithdrawal godoc
//
//	@Summary		Manually settle a withdrawal
//	@Description	Mark a withdrawal paid or rejected outside the automatic payout path.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			withdrawalID	path		string							true	"Withdrawal id"
//	@Param			request			body		dto.WithdrawalSettleRequestDTO	true	"Outcome"
//	@Success		200				{string}	string			"Withdrawal settled"
//	@Failure		404				{object}	utils.Response	"Withdrawal not found"
//	@Failure		409				{object}	utils.Response	"Withdrawal already resolved"
//	@Router			/api/admin/withdrawals/{withdrawalID}/settle [post]
func (h *AdminHandler) SettleWithdrawal(w http.ResponseWriter, r *http.Request) {
	withdrawalID := chi.URLParam(r, "withdrawalID")

	var req dto.WithdrawalSettleRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Outcome != domain.WithdrawalPaid && req.Outcome != domain.WithdrawalRejected {
		utils.RespondWithError(w, http.StatusBadRequest, "outcome must be paid or rejected")
		return
	}

	if err := h.ledgerService.SettleWithdrawal(r.Context(), withdrawalID, req.Outcome); err != nil {
		respondLedgerError(w, err)
		return
	}
	h.audit(r, "withdrawal settled manually",
		zap.String("withdrawalID", withdrawalID), zap.String("outcome", req.Outcome))
	utils.RespondWithJSON(w, http.StatusOK, "withdrawal settled")
}

// ListRefunds godoc
//
//	@Summary		List refund requests
//	@Description	List refund requests by status, highest priority first.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			status	query		string	false	"Status filter"	default(pending)
//	@Success		200		{array}		dto.RefundResponseDTO	"Refunds"
//	@Failure		401		{object}	utils.Response			"User not authorized"
//	@Failure		403		{object}	utils.Response			"Admin role required"
//	@Router			/api/admin/refunds [get]
func (h *AdminHandler) ListRefunds(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = domain.RefundPending
	}

	refunds, err := h.ledgerService.ListRefundsByStatus(r.Context(), status)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch refunds")
		return
	}

	response := make([]dto.RefundResponseDTO, len(refunds))
	for i, rf := range refunds {
		response[i] = dto.RefundResponseDTO{
			ID:            rf.ID,
			CompetitionID: rf.CompetitionID,
			AmountCents:   rf.AmountCents,
			Status:        rf.Status,
			Priority:      rf.Priority,
			Response:      rf.Response,
			RequestedAt:   rf.RequestedAt,
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// UpdateRefund godoc
//
//	@Summary		Edit a refund request
//	@Description	Set refund status, priority or support note. A note alone does not change the status.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			refundID	path		string					true	"Refund id"
//	@Param			request		body		dto.RefundUpdateRequestDTO	true	"Fields to update"
//	@Success		200			{string}	string			"Refund updated"
//	@Failure		404			{object}	utils.Response	"Refund not found"
//	@Failure		409			{object}	utils.Response	"Refund already processed"
//	@Router			/api/admin/refunds/{refundID} [post]
func (h *AdminHandler) UpdateRefund(w http.ResponseWriter, r *http.Request) {
	refundID := chi.URLParam(r, "refundID")

	var req dto.RefundUpdateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.ledgerService.UpdateRefund(r.Context(), refundID, req.Status, req.Priority, req.Response); err != nil {
		respondLedgerError(w, err)
		return
	}
	h.audit(r, "refund updated", zap.String("refundID", refundID))
	utils.RespondWithJSON(w, http.StatusOK, "refund updated")
}

// ProcessRefund godoc
//
//	@Summary		Process a refund
//	@Description	Credit the refund amount back to the user's balance, exactly once.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			refundID	path		string	true	"Refund id"
//	@Success		200			{string}	string			"Refund processed"
//	@Failure		404			{object}	utils.Response	"Refund not found"
//	@Failure		409			{object}	utils.Response	"Refund denied or contested"
//	@Failure		500			{object}	utils.Response	"Integrity fault"
//	@Router			/api/admin/refunds/{refundID}/process [post]
func (h *AdminHandler) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	refundID := chi.URLParam(r, "refundID")

	refund, err := h.ledgerService.GetRefund(r.Context(), refundID)
	if err != nil {
		respondLedgerError(w, err)
		return
	}

	if err := h.ledgerService.ProcessRefund(r.Context(), refundID, refund.AmountCents); err != nil {
		respondLedgerError(w, err)
		return
	}
	h.audit(r, "refund processed", zap.String("refundID", refundID))
	utils.RespondWithJSON(w, http.StatusOK, "refund processed")
}

// ForceActivate godoc
//
//	@Summary		Force-activate a registration
//	@Description	Privileged recovery path that moves a stuck registration straight to entered, bypassing payment confirmation.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			registrationID	path		int	true	"Registration id"
//	@Success		200				{string}	string			"Registration activated"
//	@Failure		404				{object}	utils.Response	"Registration not found"
//	@Failure		409				{object}	utils.Response	"Invalid transition"
//	@Router			/api/admin/registrations/{registrationID}/force-activate [post]
func (h *AdminHandler) ForceActivate(w http.ResponseWriter, r *http.Request) {
	registrationID, err := strconv.Atoi(chi.URLParam(r, "registrationID"))
	if err != nil || registrationID <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid registration id")
		return
	}

	if err := h.registrationService.ForceActivate(r.Context(), registrationID); err != nil {
		switch {
		case errors.Is(err, registrationservice.ErrRegistrationNotFound):
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, registrationservice.ErrInvalidTransition):
			utils.RespondWithError(w, http.StatusConflict, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	h.audit(r, "registration force-activated", zap.Int("registrationID", registrationID))
	utils.RespondWithJSON(w, http.StatusOK, "registration activated")
}

// audit logs every corrective action with the acting admin.
func (h *AdminHandler) audit(r *http.Request, action string, fields ...zap.Field) {
	adminID, _ := r.Context().Value(auth.UserIDKey).(int)
	fields = append(fields, zap.Int("adminID", adminID))
	zap.L().Warn("admin corrective action: "+action, fields...)
}

func respondLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgerservice.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledgerservice.ErrInvalidState):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledgerservice.ErrContentionExceeded):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledgerservice.ErrIntegrityFault):
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
