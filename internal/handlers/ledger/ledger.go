package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quizarena/settlement/internal/domain"
	"github.com/quizarena/settlement/internal/dto"
	"github.com/quizarena/settlement/internal/service/accountservice"
	"github.com/quizarena/settlement/internal/service/ledgerservice"
	"github.com/quizarena/settlement/pkg/auth"
	"github.com/quizarena/settlement/pkg/utils"
	"github.com/quizarena/settlement/pkg/validate"
)

type Service interface {
	GetBalance(ctx context.Context, userID int) (*domain.Balance, error)
	ReserveForWithdrawal(ctx context.Context, userID int, amountCents int64) (*domain.Withdrawal, error)
	GetWithdrawals(ctx context.Context, userID int) ([]domain.Withdrawal, error)
	GetRefunds(ctx context.Context, userID int) ([]domain.Refund, error)
	CreateRefundRequest(ctx context.Context, userID int, competitionID *string, amountCents int64) (*domain.Refund, error)
}

type AccountService interface {
	GetOrCreateAccount(ctx context.Context, userID int) (*domain.PaymentAccount, error)
	RequireVerified(ctx context.Context, userID int) (*domain.PaymentAccount, error)
}

type LedgerHandler struct {
	ledgerService  Service
	accountService AccountService
}

func New(ledgerService Service, accountService AccountService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService:  ledgerService,
		accountService: accountService,
	}
}

// GetBalance godoc
//
//	@Summary		Get current user balance
//	@Description	Retrieve the available and pending credit amounts for the authenticated user.
//	@Tags			Ledger
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.BalanceResponseDTO	"Current balance"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/user/balance [get]
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	balance, err := h.ledgerService.GetBalance(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.BalanceResponseDTO{
		AvailableCents: balance.AvailableCents,
		PendingCents:   balance.PendingCents,
	})
}

// Withdraw godoc
//
//	@Summary		Request funds withdrawal
//	@Description	Reserve part of the available balance for payout. Requires a verified KYC status.
//	@Tags			Ledger
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.WithdrawRequestDTO	true	"Withdrawal request payload"
//	@Success		201		{object}	dto.WithdrawalResponseDTO	"Withdrawal created"
//	@Failure		401		{object}	utils.Response			"User not authorized"
//	@Failure		402		{object}	utils.Response			"Insufficient funds"
//	@Failure		403		{object}	utils.Response			"KYC verification required"
//	@Failure		422		{object}	utils.Response			"Invalid amount"
//	@Failure		500		{object}	utils.Response			"Internal server error"
//	@Router			/api/user/withdrawals [post]
func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	var req dto.WithdrawRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validate.IsAmount(req.AmountCents) {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, "Invalid amount")
		return
	}

	if _, err := h.accountService.RequireVerified(r.Context(), userID); err != nil {
		if errors.Is(err, accountservice.ErrKycRequired) {
			utils.RespondWithError(w, http.StatusForbidden, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	withdrawal, err := h.ledgerService.ReserveForWithdrawal(r.Context(), userID, req.AmountCents)
	if err != nil {
		switch {
		case errors.Is(err, ledgerservice.ErrInsufficientFunds):
			utils.RespondWithError(w, http.StatusPaymentRequired, err.Error())
		case errors.Is(err, ledgerservice.ErrContentionExceeded):
			utils.RespondWithError(w, http.StatusConflict, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.WithdrawalResponseDTO{
		ID:          withdrawal.ID,
		AmountCents: withdrawal.AmountCents,
		Status:      withdrawal.Status,
		RequestedAt: withdrawal.RequestedAt,
	})
}

// GetWithdrawals godoc
//
//	@Summary		Get withdrawals history
//	@Description	Get withdrawal history for the authenticated user, newest first.
//	@Tags			Ledger
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.WithdrawalResponseDTO	"Withdrawals history"
//	@Success		204	{object}	utils.Response				"Withdrawals not found"
//	@Failure		401	{object}	utils.Response				"User not authorized"
//	@Failure		500	{object}	utils.Response				"Internal server error"
//	@Router			/api/user/withdrawals [get]
func (h *LedgerHandler) GetWithdrawals(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	withdrawals, err := h.ledgerService.GetWithdrawals(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch withdrawals")
		return
	}
	if len(withdrawals) == 0 {
		utils.RespondWithError(w, http.StatusNoContent, "Withdrawals not found")
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

// CreateRefund godoc
//
//	@Summary		Request a refund
//	@Description	Open a refund request, optionally tied to a competition entry fee.
//	@Tags			Ledger
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.RefundRequestDTO	true	"Refund request payload"
//	@Success		201		{object}	dto.RefundResponseDTO	"Refund request created"
//	@Failure		401		{object}	utils.Response			"User not authorized"
//	@Failure		422		{object}	utils.Response			"Invalid amount"
//	@Failure		500		{object}	utils.Response			"Internal server error"
//	@Router			/api/user/refunds [post]
func (h *LedgerHandler) CreateRefund(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	var req dto.RefundRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validate.IsAmount(req.AmountCents) {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, "Invalid amount")
		return
	}

	refund, err := h.ledgerService.CreateRefundRequest(r.Context(), userID, req.CompetitionID, req.AmountCents)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, refundToDTO(refund))
}

// GetRefunds godoc
//
//	@Summary		Get refunds history
//	@Description	Get refund request history for the authenticated user, newest first.
//	@Tags			Ledger
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.RefundResponseDTO	"Refunds history"
//	@Success		204	{object}	utils.Response			"Refunds not found"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/user/refunds [get]
func (h *LedgerHandler) GetRefunds(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	refunds, err := h.ledgerService.GetRefunds(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch refunds")
		return
	}
	if len(refunds) == 0 {
		utils.RespondWithError(w, http.StatusNoContent, "Refunds not found")
		return
	}

	response := make([]dto.RefundResponseDTO, len(refunds))
	for i := range refunds {
		response[i] = refundToDTO(&refunds[i])
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// GetPaymentAccount godoc
//
//	@Summary		Get payout account status
//	@Description	Return the user's payment-provider binding, creating it lazily on first call.
//	@Tags			Ledger
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.PaymentAccountResponseDTO	"KYC and onboarding status"
//	@Failure		401	{object}	utils.Response					"User not authorized"
//	@Failure		502	{object}	utils.Response					"Payment provider unavailable"
//	@Router			/api/user/payment-account [get]
func (h *LedgerHandler) GetPaymentAccount(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	account, err := h.accountService.GetOrCreateAccount(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadGateway, "Payment provider unavailable")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.PaymentAccountResponseDTO{
		KycStatus:     account.KycStatus,
		OnboardingURL: account.OnboardingURL,
	})
}

func refundToDTO(rf *domain.Refund) dto.RefundResponseDTO {
	return dto.RefundResponseDTO{
		ID:            rf.ID,
		CompetitionID: rf.CompetitionID,
		AmountCents:   rf.AmountCents,
		Status:        rf.Status,
		Priority:      rf.Priority,
		Response:      rf.Response,
		RequestedAt:   rf.RequestedAt,
	}
}
