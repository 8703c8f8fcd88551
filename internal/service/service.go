package service

import (
	"github.com/quizarena/settlement/internal/pg"
	"github.com/quizarena/settlement/internal/provider"
	"github.com/quizarena/settlement/internal/repo"
	"github.com/quizarena/settlement/internal/service/accountservice"
	"github.com/quizarena/settlement/internal/service/ledgerservice"
	"github.com/quizarena/settlement/internal/service/reconciliationservice"
	"github.com/quizarena/settlement/internal/service/registrationservice"
	"github.com/quizarena/settlement/internal/service/settlementservice"
)

type Services struct {
	LedgerService         *ledgerservice.Service
	RegistrationService   *registrationservice.Service
	AccountService        *accountservice.Service
	SettlementService     *settlementservice.Service
	ReconciliationService *reconciliationservice.Service
}

func New(repo *repo.Repositories, txManager pg.TXManager, providerClient *provider.Client) *Services {
	ledgerService := ledgerservice.New(repo.BalanceRepo, repo.WithdrawalRepo, repo.RefundRepo, txManager)
	registrationService := registrationservice.New(repo.RegistrationRepo, repo.CompetitionRepo)
	accountService := accountservice.New(repo.AccountRepo, providerClient)
	settlementService := settlementservice.New(repo.CompetitionRepo, repo.FinalizationRepo, repo.RegistrationRepo, ledgerService, registrationService)
	reconciliationService := reconciliationservice.New(repo.EventRepo, accountService, registrationService, ledgerService, txManager)

	return &Services{
		LedgerService:         ledgerService,
		RegistrationService:   registrationService,
		AccountService:        accountService,
		SettlementService:     settlementService,
		ReconciliationService: reconciliationService,
	}
}
