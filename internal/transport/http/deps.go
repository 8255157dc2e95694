package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/thelyst/internal/infrastructure/dynamo"
	"github.com/thelyst/internal/infrastructure/google"
	jwtinfra "github.com/thelyst/internal/infrastructure/jwt"
	redisinfra "github.com/thelyst/internal/infrastructure/redis"
	s3infra "github.com/thelyst/internal/infrastructure/s3"
	"github.com/thelyst/internal/infrastructure/smtp"
	"github.com/thelyst/internal/infrastructure/sns"
	"github.com/thelyst/internal/pkg/clock"
	"github.com/thelyst/internal/pkg/metrics"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	SessionRepo *dynamo.SessionRepo
	OTPRepo     *dynamo.OTPRepo
	PendingRepo *dynamo.PendingRegistrationRepo

	Avatars     *s3infra.Store
	Mailer      smtp.Mailer
	Events      sns.EventPublisher
	Limiter     redisinfra.Limiter
	JWTProvider *jwtinfra.Provider
	Google      *google.Verifier

	Clock    clock.Clocker
	Metrics  *metrics.Metrics
	Registry prometheus.Gatherer
}
