package repo

import (
	"github.com/quizarena/settlement/internal/pg"
	accountrepo "github.com/quizarena/settlement/internal/repo/account-repo"
	balancerepo "github.com/quizarena/settlement/internal/repo/balance-repo"
	competitionrepo "github.com/quizarena/settlement/internal/repo/competition-repo"
	eventrepo "github.com/quizarena/settlement/internal/repo/event-repo"
	finalizationrepo "github.com/quizarena/settlement/internal/repo/finalization-repo"
	refundrepo "github.com/quizarena/settlement/internal/repo/refund-repo"
	registrationrepo "github.com/quizarena/settlement/internal/repo/registration-repo"
	withdrawalrepo "github.com/quizarena/settlement/internal/repo/withdrawal-repo"
	"github.com/quizarena/settlement/internal/service/accountservice"
	"github.com/quizarena/settlement/internal/service/ledgerservice"
	"github.com/quizarena/settlement/internal/service/reconciliationservice"
	"github.com/quizarena/settlement/internal/service/registrationservice"
	"github.com/quizarena/settlement/internal/service/settlementservice"
)

type Repositories struct {
	BalanceRepo      ledgerservice.BalanceRepo
	WithdrawalRepo   ledgerservice.WithdrawalRepo
	RefundRepo       ledgerservice.RefundRepo
	RegistrationRepo registrationservice.Repo
	CompetitionRepo  settlementservice.CompetitionRepo
	FinalizationRepo settlementservice.FinalizationRepo
	AccountRepo      accountservice.Repo
	EventRepo        reconciliationservice.EventRepo
}

func New(conn pg.Database) *Repositories {
	return &Repositories{
		BalanceRepo:      balancerepo.New(conn),
		WithdrawalRepo:   withdrawalrepo.New(conn),
		RefundRepo:       refundrepo.New(conn),
		RegistrationRepo: registrationrepo.New(conn),
		CompetitionRepo:  competitionrepo.New(conn),
		FinalizationRepo: finalizationrepo.New(conn),
		AccountRepo:      accountrepo.New(conn),
		EventRepo:        eventrepo.New(conn),
	}
}
