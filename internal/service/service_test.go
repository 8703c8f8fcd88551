package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/quizarena/settlement/internal/pg"
	"github.com/quizarena/settlement/internal/repo"
	"github.com/quizarena/settlement/internal/service/accountservice"
	"github.com/quizarena/settlement/internal/service/ledgerservice"
	"github.com/quizarena/settlement/internal/service/reconciliationservice"
	"github.com/quizarena/settlement/internal/service/registrationservice"
	"github.com/quizarena/settlement/internal/service/settlementservice"
)

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBalanceRepo := ledgerservice.NewMockBalanceRepo(ctrl)
	mockWithdrawalRepo := ledgerservice.NewMockWithdrawalRepo(ctrl)
	mockRefundRepo := ledgerservice.NewMockRefundRepo(ctrl)
	mockRegistrationRepo := registrationservice.NewMockRepo(ctrl)
	mockCompetitionRepo := settlementservice.NewMockCompetitionRepo(ctrl)
	mockFinalizationRepo := settlementservice.NewMockFinalizationRepo(ctrl)
	mockAccountRepo := accountservice.NewMockRepo(ctrl)
	mockEventRepo := reconciliationservice.NewMockEventRepo(ctrl)
	mockTxManager := pg.NewMockTXManager(ctrl)

	repos := &repo.Repositories{
		BalanceRepo:      mockBalanceRepo,
		WithdrawalRepo:   mockWithdrawalRepo,
		RefundRepo:       mockRefundRepo,
		RegistrationRepo: mockRegistrationRepo,
		CompetitionRepo:  mockCompetitionRepo,
		FinalizationRepo: mockFinalizationRepo,
		AccountRepo:      mockAccountRepo,
		EventRepo:        mockEventRepo,
	}

	services := New(repos, mockTxManager, nil)

	assert.NotNil(t, services.LedgerService)
	assert.NotNil(t, services.RegistrationService)
	assert.NotNil(t, services.AccountService)
	assert.NotNil(t, services.SettlementService)
	assert.NotNil(t, services.ReconciliationService)
}
