package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "github.com/quizarena/settlement/docs"
	"github.com/quizarena/settlement/internal/config"
	adminhandlers "github.com/quizarena/settlement/internal/handlers/admin"
	ledgerhandlers "github.com/quizarena/settlement/internal/handlers/ledger"
	registrationhandlers "github.com/quizarena/settlement/internal/handlers/registration"
	settlementhandlers "github.com/quizarena/settlement/internal/handlers/settlement"
	webhookhandlers "github.com/quizarena/settlement/internal/handlers/webhook"
	"github.com/quizarena/settlement/internal/service"
	"github.com/quizarena/settlement/pkg/auth"
	httpSwagger "github.com/swaggo/http-swagger"
)

type LedgerHandler interface {
	GetBalance(w http.ResponseWriter, r *http.Request)
	Withdraw(w http.ResponseWriter, r *http.Request)
	GetWithdrawals(w http.ResponseWriter, r *http.Request)
	CreateRefund(w http.ResponseWriter, r *http.Request)
	GetRefunds(w http.ResponseWriter, r *http.Request)
	GetPaymentAccount(w http.ResponseWriter, r *http.Request)
}

type RegistrationHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Enter(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	RecordResult(w http.ResponseWriter, r *http.Request)
}

type SettlementHandler interface {
	Finalize(w http.ResponseWriter, r *http.Request)
}

type WebhookHandler interface {
	PaymentWebhook(w http.ResponseWriter, r *http.Request)
}

type AdminHandler interface {
	ListWithdrawals(w http.ResponseWriter, r *http.Request)
	ApproveWithdrawal(w http.ResponseWriter, r *http.Request)
	SettleWithdrawal(w http.ResponseWriter, r *http.Request)
	ListRefunds(w http.ResponseWriter, r *http.Request)
	UpdateRefund(w http.ResponseWriter, r *http.Request)
	ProcessRefund(w http.ResponseWriter, r *http.Request)
	ForceActivate(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	LedgerHandler       LedgerHandler
	RegistrationHandler RegistrationHandler
	SettlementHandler   SettlementHandler
	WebhookHandler      WebhookHandler
	AdminHandler        AdminHandler
}

func New(s *service.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		LedgerHandler:       ledgerhandlers.New(s.LedgerService, s.AccountService),
		RegistrationHandler: registrationhandlers.New(s.RegistrationService),
		SettlementHandler:   settlementhandlers.New(s.SettlementService),
		WebhookHandler:      webhookhandlers.New(s.ReconciliationService, cfg.WebhookSecret),
		AdminHandler:        adminhandlers.New(s.LedgerService, s.RegistrationService),
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/api/webhooks/payment", h.WebhookHandler.PaymentWebhook)
	r.Post("/api/settlement/finalize", h.SettlementHandler.Finalize)

	r.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware)

		r.Route("/api/user", func(r chi.Router) {
			r.Get("/balance", h.LedgerHandler.GetBalance)
			r.Post("/balance/withdraw", h.LedgerHandler.Withdraw)
			r.Get("/withdrawals", h.LedgerHandler.GetWithdrawals)
			r.Route("/refunds", func(r chi.Router) {
				r.Post("/", h.LedgerHandler.CreateRefund)
				r.Get("/", h.LedgerHandler.GetRefunds)
			})
			r.Get("/payment-account", h.LedgerHandler.GetPaymentAccount)
		})

		r.Post("/api/competitions/{competitionID}/register", h.RegistrationHandler.Register)
		r.Route("/api/registrations/{registrationID}", func(r chi.Router) {
			r.Post("/enter", h.RegistrationHandler.Enter)
			r.Post("/cancel", h.RegistrationHandler.Cancel)
			r.Post("/result", h.RegistrationHandler.RecordResult)
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(auth.AdminMiddleware)
			r.Get("/withdrawals", h.AdminHandler.ListWithdrawals)
			r.Post("/withdrawals/{withdrawalID}/approve", h.AdminHandler.ApproveWithdrawal)
			r.Post("/withdrawals/{withdrawalID}/settle", h.AdminHandler.SettleWithdrawal)
			r.Get("/refunds", h.AdminHandler.ListRefunds)
			r.Post("/refunds/{refundID}", h.AdminHandler.UpdateRefund)
			r.Post("/refunds/{refundID}/process", h.AdminHandler.ProcessRefund)
			r.Post("/registrations/{registrationID}/force-activate", h.AdminHandler.ForceActivate)
		})
	})

	return r
}
