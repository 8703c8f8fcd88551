package settlementservice

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/quizarena/settlement/internal/domain"
	"github.com/quizarena/settlement/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type CompetitionRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Competition, error)
	ListClosedUnfinalized(ctx context.Context) ([]domain.Competition, error)
}

type FinalizationRepo interface {
	Get(ctx context.Context, competitionID string) (*domain.Finalization, error)
	Create(ctx context.Context, fin *domain.Finalization) (bool, error)
}

type RegistrationRepo interface {
	ListEntered(ctx context.Context, competitionID string) ([]domain.Registration, error)
}

type Ledger interface {
	Credit(ctx context.Context, userID int, amountCents int64, reason, idempotencyKey string) (bool, error)
}

type Registrations interface {
	Complete(ctx context.Context, registrationID int) error
}

type Service struct {
	compRepo      CompetitionRepo
	finRepo       FinalizationRepo
	regRepo       RegistrationRepo
	ledger        Ledger
	registrations Registrations
	now           func() time.Time
}

func New(compRepo CompetitionRepo, finRepo FinalizationRepo, regRepo RegistrationRepo, ledger Ledger, registrations Registrations) *Service {
	return &Service{
		compRepo:      compRepo,
		finRepo:       finRepo,
		regRepo:       regRepo,
		ledger:        ledger,
		registrations: registrations,
		now:           time.Now,
	}
}

var (
	ErrCompetitionNotFound = errors.New("competition not found")
	ErrCompetitionOpen     = errors.New("competition window still open")
)

// payoutShares are the prize-pool percentages paid per rank band.
var payoutShares = []int64{50, 30, 20}

// Result is what one Finalize call produced.
type Result struct {
	Finalization     *domain.Finalization
	AlreadyFinalized bool
}

// Finalize settles one competition. It is safe to invoke any number of
// times: a stored finalization record short-circuits, and all ledger
// adjustments carry deterministic idempotency keys so a re-run after a
// partial failure skips credits that already landed.
func (s *Service) Finalize(ctx context.Context, competitionID string) (*Result, error) {
	existing, err := s.finRepo.Get(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &Result{Finalization: existing, AlreadyFinalized: true}, nil
	}

	competition, err := s.compRepo.GetByID(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if competition == nil {
		return nil, ErrCompetitionNotFound
	}
	if competition.ClosesAt.After(s.now()) {
		return nil, ErrCompetitionOpen
	}

	participants, err := s.regRepo.ListEntered(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	ranked := rank(participants)

	winners := make([]domain.Winner, 0, len(payoutShares))
	for i, reg := range ranked {
		if i >= len(payoutShares) {
			break
		}
		winners = append(winners, domain.Winner{
			UserID:      reg.UserID,
			Rank:        i + 1,
			PayoutCents: competition.PrizePoolCents * payoutShares[i] / 100,
		})
	}

	// Apply every adjustment before writing the finalization record: an
	// abort anywhere leaves the call retriable, and applied credits are
	// skipped on the retry by their idempotency keys.
	for i, reg := range ranked {
		if i < len(winners) {
			key := fmt.Sprintf("settle:%s:%d:payout", competitionID, reg.UserID)
			if _, err := s.ledger.Credit(ctx, reg.UserID, winners[i].PayoutCents, "competition payout", key); err != nil {
				return nil, fmt.Errorf("payout credit for user %d failed: %w", reg.UserID, err)
			}
		} else if competition.EntryFeeCents > 0 {
			key := fmt.Sprintf("settle:%s:%d:refund", competitionID, reg.UserID)
			if _, err := s.ledger.Credit(ctx, reg.UserID, competition.EntryFeeCents, "entry fee refund", key); err != nil {
				return nil, fmt.Errorf("entry fee refund for user %d failed: %w", reg.UserID, err)
			}
		}
		if err := s.registrations.Complete(ctx, reg.ID); err != nil {
			return nil, fmt.Errorf("can't complete registration %d: %w", reg.ID, err)
		}
	}

	finalization := &domain.Finalization{
		CompetitionID: competitionID,
		Winners:       winners,
	}
	created, err := s.finRepo.Create(ctx, finalization)
	if err != nil {
		return nil, err
	}
	if !created {
		// A concurrent finalize won the record write; its result is ours.
		stored, err := s.finRepo.Get(ctx, competitionID)
		if err != nil {
			return nil, err
		}
		return &Result{Finalization: stored, AlreadyFinalized: true}, nil
	}

	metrics.Finalizations.Inc()
	zap.L().Info("competition finalized",
		zap.String("competitionID", competitionID),
		zap.Int("participants", len(ranked)),
		zap.Int("winners", len(winners)))
	return &Result{Finalization: finalization}, nil
}

// FinalizeDue settles every competition whose window has closed.
func (s *Service) FinalizeDue(ctx context.Context) (finalized, alreadyFinalized []string, err error) {
	competitions, err := s.compRepo.ListClosedUnfinalized(ctx)
	if err != nil {
		return nil, nil, err
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, competition := range competitions {
		competition := competition
		g.Go(func() error {
			result, err := s.Finalize(gctx, competition.ID)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if result.AlreadyFinalized {
				alreadyFinalized = append(alreadyFinalized, competition.ID)
			} else {
				finalized = append(finalized, competition.ID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return finalized, alreadyFinalized, err
	}
	sort.Strings(finalized)
	sort.Strings(alreadyFinalized)
	return finalized, alreadyFinalized, nil
}

// rank orders participants by score, breaking ties by lowest aggregate
// response time, then by registration id for determinism.
func rank(regs []domain.Registration) []domain.Registration {
	ranked := make([]domain.Registration, len(regs))
	copy(ranked, regs)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].ResponseTimeMS != ranked[j].ResponseTimeMS {
			return ranked[i].ResponseTimeMS < ranked[j].ResponseTimeMS
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}
