package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/thelyst/internal/application/identity"
	"github.com/thelyst/internal/application/notification"
	"github.com/thelyst/internal/application/otp"
	"github.com/thelyst/internal/application/registration"
	"github.com/thelyst/internal/config"
	"github.com/thelyst/internal/pkg/metrics"
	"github.com/thelyst/internal/transport/http/handler"
	appmiddleware "github.com/thelyst/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter wires the services and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(deps.Metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	otpSvc := otp.NewService(otp.ServiceDeps{
		Store:          deps.OTPRepo,
		Limiter:        deps.Limiter,
		Clock:          deps.Clock,
		Metrics:        deps.Metrics,
		TTL:            cfg.OTP.TTL,
		MaxAttempts:    cfg.OTP.MaxAttempts,
		ResendCooldown: cfg.OTP.ResendCooldown,
		HourlyLimit:    cfg.OTP.HourlyLimit,
	})
	sender := notification.NewSender(notification.SenderDeps{
		Mailer:  deps.Mailer,
		AppName: cfg.MailAppName,
		Metrics: deps.Metrics,
	})
	identitySvc := identity.NewService(identity.ServiceDeps{
		UserRepo:      deps.UserRepo,
		SessionRepo:   deps.SessionRepo,
		Tokens:        deps.JWTProvider,
		Google:        deps.Google,
		Avatars:       deps.Avatars,
		Clock:         deps.Clock,
		Metrics:       deps.Metrics,
		SessionTTL:    cfg.SessionTTL,
		RememberMeTTL: cfg.SessionRememberTTL,
	})
	registrationSvc := registration.NewService(registration.ServiceDeps{
		Pending:    deps.PendingRepo,
		OTP:        otpSvc,
		Sender:     sender,
		Identity:   identitySvc,
		Events:     deps.Events,
		Clock:      deps.Clock,
		Metrics:    deps.Metrics,
		PendingTTL: cfg.PendingRegistrationTTL,
		CodeTTL:    cfg.OTP.TTL,
	})

	cookie := handler.CookieConfig{
		Name:        cfg.SessionCookieName,
		Secure:      cfg.IsProduction(),
		TTL:         cfg.SessionTTL,
		RememberTTL: cfg.SessionRememberTTL,
	}

	healthH := handler.NewHealthHandler()
	otpH := handler.NewOTPHandler(registrationSvc, otpSvc)
	registrationH := handler.NewRegistrationHandler(registrationSvc, cookie)
	authH := handler.NewAuthHandler(identitySvc, cookie)
	sessionH := handler.NewSessionHandler(identitySvc, cookie)
	userH := handler.NewUserHandler(identitySvc)

	authMw := appmiddleware.Auth(identitySvc, cfg.SessionCookieName)

	// 5 requests/second, burst of 10 on endpoints that send mail or check secrets.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Registry))
	}

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)

		r.Group(func(r chi.Router) {
			r.Use(sensitiveRL.Limit)

			r.Post("/send-otp", otpH.Send)
			r.Get("/verify-otp", otpH.Verify)
			r.Post("/verify-otp", otpH.Verify)
			r.Post("/register", registrationH.Start)
			r.Post("/register/resend", registrationH.Resend)
			r.Post("/register/confirm", registrationH.Confirm)
			r.Post("/auth/login", authH.Login)
			r.Post("/auth/google", authH.Google)
			r.Post("/sessions", sessionH.Create)
		})
		r.Delete("/sessions", sessionH.Delete)
		r.Get("/auth/verify", authH.Verify)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/users/me", userH.Me)
			r.Put("/users/me", userH.UpdateMe)
			r.Put("/users/me/avatar", userH.UploadAvatar)
			r.Post("/auth/link-password", authH.LinkPassword)
		})
	})

	return r
}
