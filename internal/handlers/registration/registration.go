package registration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/quizarena/settlement/internal/domain"
	"github.com/quizarena/settlement/internal/dto"
	"github.com/quizarena/settlement/internal/service/registrationservice"
	"github.com/quizarena/settlement/pkg/auth"
	"github.com/quizarena/settlement/pkg/utils"
)

type Service interface {
	Register(ctx context.Context, userID int, competitionID string) (*domain.Registration, error)
	Enter(ctx context.Context, registrationID int) error
	Cancel(ctx context.Context, registrationID int) error
	RecordResult(ctx context.Context, registrationID int, score int, responseTimeMS int64) error
	GetByID(ctx context.Context, registrationID int) (*domain.Registration, error)
}

type RegistrationHandler struct {
	registrationService Service
}

func New(registrationService Service) *RegistrationHandler {
	return &RegistrationHandler{
		registrationService: registrationService,
	}
}

// Register godoc
//
//	@Summary		Register for a competition
//	@Description	Create a pending enrollment for the authenticated user.
//	@Tags			Registrations
//	@Security		BearerAuth
//	@Produce		json
//	@Param			competitionID	path		string	true	"Competition id"
//	@Success		201				{object}	dto.RegistrationResponseDTO	"Registration created"
//	@Failure		401				{object}	utils.Response				"User not authorized"
//	@Failure		404				{object}	utils.Response				"Competition not found"
//	@Failure		409				{object}	utils.Response				"Registration already exists"
//	@Failure		500				{object}	utils.Response				"Internal server error"
//	@Router			/api/competitions/{competitionID}/register [post]
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)
	competitionID := chi.URLParam(r, "competitionID")
	if competitionID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "competition id is required")
		return
	}

	registration, err := h.registrationService.Register(r.Context(), userID, competitionID)
	if err != nil {
		switch {
		case errors.Is(err, registrationservice.ErrCompetitionNotFound):
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, registrationservice.ErrDuplicateRegistration):
			utils.RespondWithError(w, http.StatusConflict, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, toDTO(registration))
}

// Enter godoc
//
//	@Summary		Enter a competition
//	@Description	Lock in participation for a confirmed registration, stamping entered_at.
//	@Tags			Registrations
//	@Security		BearerAuth
//	@Produce		json
//	@Param			registrationID	path		int	true	"Registration id"
//	@Success		200				{object}	dto.RegistrationResponseDTO	"Registration entered"
//	@Failure		401				{object}	utils.Response				"User not authorized"
//	@Failure		404				{object}	utils.Response				"Registration not found"
//	@Failure		409				{object}	utils.Response				"Invalid transition"
//	@Failure		500				{object}	utils.Response				"Internal server error"
//	@Router			/api/registrations/{registrationID}/enter [post]
func (h *RegistrationHandler) Enter(w http.ResponseWriter, r *http.Request) {
	registrationID, ok := h.ownRegistrationID(w, r)
	if !ok {
		return
	}

	if err := h.registrationService.Enter(r.Context(), registrationID); err != nil {
		respondTransitionError(w, err)
		return
	}
	registration, err := h.registrationService.GetByID(r.Context(), registrationID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toDTO(registration))
}

// Cancel godoc
//
//	@Summary		Cancel a registration
//	@Description	Cancel a pending or confirmed registration.
//	@Tags			Registrations
//	@Security		BearerAuth
//	@Produce		json
//	@Param			registrationID	path		int	true	"Registration id"
//	@Success		200				{string}	string			"Registration cancelled"
//	@Failure		401				{object}	utils.Response	"User not authorized"
//	@Failure		404				{object}	utils.Response	"Registration not found"
//	@Failure		409				{object}	utils.Response	"Invalid transition"
//	@Router			/api/registrations/{registrationID}/cancel [post]
func (h *RegistrationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	registrationID, ok := h.ownRegistrationID(w, r)
	if !ok {
		return
	}

	if err := h.registrationService.Cancel(r.Context(), registrationID); err != nil {
		respondTransitionError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, "registration cancelled")
}

// RecordResult godoc
//
//	@Summary		Record quiz result
//	@Description	Store the score and aggregate response time used for settlement ranking.
//	@Tags			Registrations
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			registrationID	path		int								true	"Registration id"
//	@Param			request			body		dto.RecordResultRequestDTO	true	"Quiz result payload"
//	@Success		200				{string}	string			"Result recorded"
//	@Failure		401				{object}	utils.Response	"User not authorized"
//	@Failure		404				{object}	utils.Response	"Registration not found"
//	@Failure		409				{object}	utils.Response	"Registration not entered"
//	@Router			/api/registrations/{registrationID}/result [post]
func (h *RegistrationHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	registrationID, ok := h.ownRegistrationID(w, r)
	if !ok {
		return
	}

	var req dto.RecordResultRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Score < 0 || req.ResponseTimeMS < 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "score and response time must be non-negative")
		return
	}

	if err := h.registrationService.RecordResult(r.Context(), registrationID, req.Score, req.ResponseTimeMS); err != nil {
		respondTransitionError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, "result recorded")
}

// ownRegistrationID parses the path id and checks the registration belongs
// to the authenticated user.
func (h *RegistrationHandler) ownRegistrationID(w http.ResponseWriter, r *http.Request) (int, bool) {
	registrationID, err := strconv.Atoi(chi.URLParam(r, "registrationID"))
	if err != nil || registrationID <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid registration id")
		return 0, false
	}

	userID := r.Context().Value(auth.UserIDKey).(int)
	registration, err := h.registrationService.GetByID(r.Context(), registrationID)
	if err != nil {
		if errors.Is(err, registrationservice.ErrRegistrationNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
		} else {
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return 0, false
	}
	if registration.UserID != userID {
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		return 0, false
	}
	return registrationID, true
}

func respondTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registrationservice.ErrRegistrationNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, registrationservice.ErrInvalidTransition):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func toDTO(reg *domain.Registration) dto.RegistrationResponseDTO {
	return dto.RegistrationResponseDTO{
		ID:                  reg.ID,
		CompetitionID:       reg.CompetitionID,
		Status:              reg.Status,
		ParticipationStatus: reg.ParticipationStatus,
		EnteredAt:           reg.EnteredAt,
	}
}
