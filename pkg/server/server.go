package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/tutorahq/tutora/pkg/auth"
	"github.com/tutorahq/tutora/pkg/binder"
	"github.com/tutorahq/tutora/pkg/chapters"
	"github.com/tutorahq/tutora/pkg/config"
	"github.com/tutorahq/tutora/pkg/courses"
	"github.com/tutorahq/tutora/pkg/enrollments"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/faqs"
	"github.com/tutorahq/tutora/pkg/jobs"
	"github.com/tutorahq/tutora/pkg/lessons"
	"github.com/tutorahq/tutora/pkg/orgs"
	"github.com/tutorahq/tutora/pkg/payments"
	"github.com/tutorahq/tutora/pkg/quizzes"
	"github.com/tutorahq/tutora/pkg/reviews"
	"github.com/tutorahq/tutora/pkg/roles"
	"github.com/tutorahq/tutora/pkg/tickets"
	"github.com/tutorahq/tutora/pkg/users"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	// Auth first; everything else hangs off its middleware.
	authService := auth.RegisterRoutes(e, db, cfg.JWTSecret)
	authMiddleware := auth.NewMiddleware(authService)

	users.RegisterRoutes(e, db, authMiddleware)
	roles.RegisterRoutes(e, db, authMiddleware)
	orgs.RegisterRoutes(e, db, authMiddleware)

	// Catalog and course content.
	courses.RegisterRoutes(e, db, authMiddleware)
	chapters.RegisterRoutes(e, db, authMiddleware)
	lessons.RegisterRoutes(e, db, authMiddleware)
	quizzes.RegisterRoutes(e, db, authMiddleware)
	faqs.RegisterRoutes(e, db, authMiddleware)

	// Learner-facing flows.
	enrollments.RegisterRoutes(e, db, authMiddleware)
	provider := payments.NewResilientProvider(
		payments.NewRESTProvider(cfg.PaymentProviderURL, cfg.PaymentAPIKey, cfg.PaymentTimeout),
	)
	payments.RegisterRoutes(e, db, cfg, provider, authMiddleware)
	reviews.RegisterRoutes(e, db, authMiddleware)
	tickets.RegisterRoutes(e, db, cfg, authMiddleware)

	// Operational surface.
	jobs.RegisterRoutes(e, db, authMiddleware)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
