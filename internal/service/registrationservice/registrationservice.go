package registrationservice

import (
	"context"
	"errors"

	"github.com/quizarena/settlement/internal/domain"
	registrationrepo "github.com/quizarena/settlement/internal/repo/registration-repo"
	"go.uber.org/zap"
)

type Repo interface {
	Create(ctx context.Context, userID int, competitionID string) (*domain.Registration, error)
	FindActive(ctx context.Context, userID int, competitionID string) (*domain.Registration, error)
	GetByID(ctx context.Context, id int) (*domain.Registration, error)
	TransitionStatus(ctx context.Context, id int, from, to string, stampEntered bool) error
	CompleteParticipation(ctx context.Context, id int) error
	RecordResult(ctx context.Context, id int, score int, responseTimeMS int64) error
	ListEntered(ctx context.Context, competitionID string) ([]domain.Registration, error)
}

type CompetitionRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Competition, error)
}

type Service struct {
	repo     Repo
	compRepo CompetitionRepo
}

func New(repo Repo, compRepo CompetitionRepo) *Service {
	return &Service{
		repo:     repo,
		compRepo: compRepo,
	}
}

var (
	ErrDuplicateRegistration = errors.New("registration already exists")
	ErrCompetitionNotFound   = errors.New("competition not found")
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrInvalidTransition     = errors.New("invalid registration transition")
	// ErrStaleState signals a lost compare-and-swap race; callers re-read
	// and decide whether the target state was already reached.
	ErrStaleState = registrationrepo.ErrStaleState
)

func (s *Service) Register(ctx context.Context, userID int, competitionID string) (*domain.Registration, error) {
	competition, err := s.compRepo.GetByID(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if competition == nil {
		return nil, ErrCompetitionNotFound
	}

	existing, err := s.repo.FindActive(ctx, userID, competitionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		zap.L().Info("registration already exists",
			zap.Int("userID", userID), zap.String("competitionID", competitionID))
		return nil, ErrDuplicateRegistration
	}

	registration, err := s.repo.Create(ctx, userID, competitionID)
	if err != nil {
		zap.L().Error("can't save registration: ", zap.Error(err))
		return nil, err
	}
	return registration, nil
}

// ConfirmPayment moves pending to confirmed. Duplicate provider callbacks
// for a registration already confirmed or beyond are a no-op, not an error.
func (s *Service) ConfirmPayment(ctx context.Context, registrationID int) error {
	err := s.repo.TransitionStatus(ctx, registrationID,
		domain.RegistrationPending, domain.RegistrationConfirmed, false)
	if !errors.Is(err, ErrStaleState) {
		return err
	}

	registration, err := s.repo.GetByID(ctx, registrationID)
	if err != nil {
		return err
	}
	if registration == nil {
		return ErrRegistrationNotFound
	}
	switch registration.Status {
	case domain.RegistrationConfirmed, domain.RegistrationEntered, domain.RegistrationCompleted:
		return nil
	}
	return ErrInvalidTransition
}

// Enter locks the participant in: confirmed to entered, stamping entered_at.
func (s *Service) Enter(ctx context.Context, registrationID int) error {
	err := s.repo.TransitionStatus(ctx, registrationID,
		domain.RegistrationConfirmed, domain.RegistrationEntered, true)
	if errors.Is(err, ErrStaleState) {
		registration, getErr := s.repo.GetByID(ctx, registrationID)
		if getErr != nil {
			return getErr
		}
		if registration == nil {
			return ErrRegistrationNotFound
		}
		return ErrInvalidTransition
	}
	return err
}

// ForceActivate is the audited admin escalation that skips payment
// confirmation and moves a stuck registration straight to entered.
func (s *Service) ForceActivate(ctx context.Context, registrationID int) error {
	registration, err := s.repo.GetByID(ctx, registrationID)
	if err != nil {
		return err
	}
	if registration == nil {
		return ErrRegistrationNotFound
	}

	switch registration.Status {
	case domain.RegistrationPending, domain.RegistrationConfirmed:
	case domain.RegistrationEntered:
		return nil
	default:
		return ErrInvalidTransition
	}

	err = s.repo.TransitionStatus(ctx, registrationID,
		registration.Status, domain.RegistrationEntered, true)
	if errors.Is(err, ErrStaleState) {
		return ErrInvalidTransition
	}
	if err != nil {
		return err
	}

	zap.L().Warn("registration force-activated, bypassing payment confirmation",
		zap.Int("registrationID", registrationID),
		zap.Int("userID", registration.UserID),
		zap.String("competitionID", registration.CompetitionID))
	return nil
}

// Complete is invoked by the settlement engine during finalization.
func (s *Service) Complete(ctx context.Context, registrationID int) error {
	err := s.repo.CompleteParticipation(ctx, registrationID)
	if errors.Is(err, ErrStaleState) {
		registration, getErr := s.repo.GetByID(ctx, registrationID)
		if getErr != nil {
			return getErr
		}
		if registration != nil && registration.Status == domain.RegistrationCompleted {
			return nil
		}
		return ErrInvalidTransition
	}
	return err
}

// Cancel is reachable from pending or confirmed only.
func (s *Service) Cancel(ctx context.Context, registrationID int) error {
	for _, from := range []string{domain.RegistrationPending, domain.RegistrationConfirmed} {
		err := s.repo.TransitionStatus(ctx, registrationID, from, domain.RegistrationCancelled, false)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrStaleState) {
			return err
		}
	}
	registration, err := s.repo.GetByID(ctx, registrationID)
	if err != nil {
		return err
	}
	if registration == nil {
		return ErrRegistrationNotFound
	}
	if registration.Status == domain.RegistrationCancelled {
		return nil
	}
	return ErrInvalidTransition
}

// RecordResult stores the quiz outcome used later for ranking.
func (s *Service) RecordResult(ctx context.Context, registrationID int, score int, responseTimeMS int64) error {
	err := s.repo.RecordResult(ctx, registrationID, score, responseTimeMS)
	if errors.Is(err, ErrStaleState) {
		registration, getErr := s.repo.GetByID(ctx, registrationID)
		if getErr != nil {
			return getErr
		}
		if registration == nil {
			return ErrRegistrationNotFound
		}
		return ErrInvalidTransition
	}
	return err
}

func (s *Service) GetByID(ctx context.Context, registrationID int) (*domain.Registration, error) {
	registration, err := s.repo.GetByID(ctx, registrationID)
	if err != nil {
		zap.L().Error("failed to get registration", zap.Error(err))
		return nil, err
	}
	if registration == nil {
		return nil, ErrRegistrationNotFound
	}
	return registration, nil
}
