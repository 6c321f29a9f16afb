package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/judyrop/restaurant-backend/auth"
	"github.com/judyrop/restaurant-backend/cart"
	"github.com/judyrop/restaurant-backend/catalog"
	"github.com/judyrop/restaurant-backend/config"
	"github.com/judyrop/restaurant-backend/events"
	"github.com/judyrop/restaurant-backend/gradebook"
	"github.com/judyrop/restaurant-backend/handlers"
	"github.com/judyrop/restaurant-backend/logger"
	"github.com/judyrop/restaurant-backend/orders"
	"github.com/judyrop/restaurant-backend/store"
	"github.com/judyrop/restaurant-backend/uploads"
	"github.com/judyrop/restaurant-backend/users"
)

// App wires the restaurant services to one database.
type App struct {
	Config    config.Config
	DB        *gorm.DB
	Log       *logrus.Entry
	Tokens    *auth.Issuer
	Verifier  auth.Verifier
	Publisher events.Publisher
	API       *handlers.API
}

func NewApp(cfg config.Config, db *gorm.DB, publisher events.Publisher, log *logrus.Entry) *App {
	if publisher == nil {
		publisher = events.Nop{}
	}
	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	app := &App{
		Config:    cfg,
		DB:        db,
		Log:       log,
		Tokens:    tokens,
		Verifier:  tokens,
		Publisher: publisher,
	}
	app.API = &handlers.API{
		Users:    users.NewService(db),
		Products: catalog.NewProducts(db),
		Menu:     catalog.NewMenu(db, cfg.MenuLocation()),
		Cart:     cart.NewService(db),
		Orders:   orders.NewService(db, publisher, log),
		Tokens:   tokens,
		Uploads:  uploads.NewLocal(cfg.UploadDir),
		Log:      log,
		Checks: map[string]handlers.HealthCheck{
			"database": func(ctx context.Context) error { return store.Ping(ctx, db) },
		},
	}
	if p, ok := publisher.(interface{ Ping() error }); ok {
		app.API.Checks["rabbitmq"] = func(context.Context) error { return p.Ping() }
	}
	return app
}

// EnableOIDC also accepts ID tokens from the configured identity provider.
func (a *App) EnableOIDC(ctx context.Context) error {
	v, err := auth.NewOIDCVerifier(ctx, a.Config.OIDCIssuer, a.Config.OIDCClientID, a.API.Users.ByEmail)
	if err != nil {
		return err
	}
	a.Verifier = auth.Chain{a.Tokens, v}
	return nil
}

func SetupRouter(app *App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.Gin(app.Log))
	r.Static("/uploads", app.Config.UploadDir)

	app.API.Register(r.Group("/api"), auth.Middleware(app.Verifier))
	return r
}

func SetupGradebookRouter(db *gorm.DB, log *logrus.Entry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.Gin(log))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	gradebook.NewHandler(gradebook.NewService(db), log).Register(r.Group("/api"))
	return r
}

// runServer serves h until ctx is canceled, then drains in-flight requests.
func runServer(ctx context.Context, addr string, h http.Handler, log *logrus.Entry) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.WithFields(logrus.Fields{"action": "server_start", "addr": addr}).Info("listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.WithField("action", "server_stop").Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
