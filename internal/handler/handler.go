package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/editor"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/metrics"
)

// Repository 是 handler 用到的持久化操作，由 repository.Repository 实现
type Repository interface {
	GetUserByID(id int64) (*domain.User, error)
	GetUserByUsername(username string) (*domain.User, error)
	CreateRosterPlan(plan *domain.RosterPlan) error
	GetAllRosterPlans() ([]*domain.RosterPlan, error)
	GetRosterPlanByID(id int64) (*domain.RosterPlan, error)
	MarkRosterPlanPublished(plan *domain.RosterPlan) error
	DeleteRosterPlan(id int64) error
}

// MailPublisher 把邮件消息投递到队列，由 *amqp.Channel 实现
type MailPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  Repository
	translator  ut.Translator
	mailChannel MailPublisher
	editors     *editor.Registry
	metrics     *metrics.Metrics

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo Repository, mailCh MailPublisher, editors *editor.Registry, m *metrics.Metrics) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mailChannel: mailCh,
		editors:     editors,
		metrics:     m,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	editors := h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleScheduler})
	admins := h.RequiredRole([]domain.Role{domain.RoleAdmin})

	h.Mux.Handle("/metrics", h.metrics.Handler())

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.With(h.myInfo).Get("/my-info", h.GetMyInfo)

		r.Route("/rosters", func(r chi.Router) {
			r.With(admins).Post("/", h.CreateRosterPlan)
			r.Get("/", h.GetAllRosterPlans)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.rosterPlan)
				r.Get("/", h.GetRosterPlan)
				r.With(admins).Delete("/", h.DeleteRosterPlan)
				r.Get("/first-open-slot", h.GetFirstOpenSlot)
				r.Get("/weeks/{week}", h.GetAssignedInWeek)
				r.Get("/workload", h.GetWorkload)
				r.Get("/streaks", h.GetStreaks)
				r.With(editors).Post("/append", h.AppendPerson)
				r.With(editors).Post("/undo", h.Undo)
				r.With(admins).Post("/publish", h.PublishRosterPlan)
				r.Route("/slots/{week}/{jobID}", func(r chi.Router) {
					r.Use(h.rosterSlot)
					r.Get("/", h.GetSlot)
					r.Get("/fit", h.GetFit)
					r.Get("/candidates", h.GetCandidates)
					r.With(editors).Post("/people", h.PlacePerson)
					r.With(editors).Delete("/people/{personID}", h.RemovePerson)
				})
			})
		})
	})
}
