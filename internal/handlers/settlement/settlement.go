package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quizarena/settlement/internal/dto"
	"github.com/quizarena/settlement/internal/service/settlementservice"
	"github.com/quizarena/settlement/pkg/utils"
)

type Service interface {
	Finalize(ctx context.Context, competitionID string) (*settlementservice.Result, error)
	FinalizeDue(ctx context.Context) (finalized, alreadyFinalized []string, err error)
}

type SettlementHandler struct {
	settlementService Service
}

func New(settlementService Service) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
	}
}

// Finalize godoc
//
//	@Summary		Finalize competitions
//	@Description	Settle one competition, or every closed unfinalized competition when no id is given. Safe to call repeatedly.
//	@Tags			Settlement
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.FinalizeRequestDTO	false	"Target competition"
//	@Success		200		{object}	dto.FinalizeResponseDTO	"Finalization outcome"
//	@Failure		404		{object}	utils.Response			"Competition not found"
//	@Failure		409		{object}	utils.Response			"Competition window still open"
//	@Failure		500		{object}	utils.Response			"Internal server error"
//	@Router			/api/settlement/finalize [post]
func (h *SettlementHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	var req dto.FinalizeRequestDTO
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if req.CompetitionID == nil {
		finalized, alreadyFinalized, err := h.settlementService.FinalizeDue(r.Context())
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "finalization failed")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, dto.FinalizeResponseDTO{
			Success:          true,
			Finalized:        emptyIfNil(finalized),
			AlreadyFinalized: emptyIfNil(alreadyFinalized),
		})
		return
	}

	result, err := h.settlementService.Finalize(r.Context(), *req.CompetitionID)
	if err != nil {
		switch {
		case errors.Is(err, settlementservice.ErrCompetitionNotFound):
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, settlementservice.ErrCompetitionOpen):
			utils.RespondWithError(w, http.StatusConflict, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "finalization failed")
		}
		return
	}

	response := dto.FinalizeResponseDTO{
		Success:          true,
		Finalized:        []string{},
		AlreadyFinalized: []string{},
	}
	if result.AlreadyFinalized {
		response.AlreadyFinalized = []string{*req.CompetitionID}
	} else {
		response.Finalized = []string{*req.CompetitionID}
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

func emptyIfNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
