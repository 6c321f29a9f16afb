package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/judyrop/restaurant-backend/config"
	"github.com/judyrop/restaurant-backend/events"
	"github.com/judyrop/restaurant-backend/logger"
	"github.com/judyrop/restaurant-backend/models"
	"github.com/judyrop/restaurant-backend/store"
	"github.com/judyrop/restaurant-backend/users"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the restaurant API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if port != "" {
			cfg.Port = port
		}
		log := logger.New("restaurant-api")
		if cfg.UsesDefaultSecret() {
			log.WithField("action", "config").Warn("JWT_SECRET_KEY not set, using the development key")
			Warning("JWT_SECRET_KEY not set, tokens are signed with the development key")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := openRestaurantDB(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer store.Close(db)

		var publisher events.Publisher = events.Nop{}
		if cfg.AMQPURL != "" {
			mq, err := events.DialRabbitMQ(cfg.AMQPURL, log)
			if err != nil {
				return err
			}
			defer mq.Close()
			publisher = mq
			log.WithField("action", "rabbitmq_connected").Info("publishing order events")
		}

		app := NewApp(cfg, db, publisher, log)
		if cfg.OIDCIssuer != "" {
			if err := app.EnableOIDC(ctx); err != nil {
				return err
			}
		}
		Success("restaurant API listening on %s", addr(cfg.Port))
		return runServer(ctx, addr(cfg.Port), SetupRouter(app), log)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the restaurant and gradebook tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.New("restaurant-migrate")
		db, err := openRestaurantDB(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		store.Close(db)
		Success("restaurant schema is up to date")

		gdb, err := openGradebookDB(cfg, log)
		if err != nil {
			return err
		}
		store.Close(gdb)
		Success("gradebook schema is up to date")
		return nil
	},
}

var adminUsername, adminEmail, adminPassword string

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account or promote an existing one",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.New("restaurant-admin")
		db, err := openRestaurantDB(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer store.Close(db)

		user, created, err := users.NewService(db).CreateAdmin(cmd.Context(), users.RegisterRequest{
			Username: adminUsername,
			Email:    adminEmail,
			Password: adminPassword,
		})
		if err != nil {
			return err
		}
		if created {
			Success("created admin %q (id %d)", user.Username, user.ID)
		} else {
			Info("promoted %q (id %d) to admin", user.Username, user.ID)
		}
		return nil
	},
}

var gradebookCmd = &cobra.Command{
	Use:   "gradebook",
	Short: "Run the gradebook API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if port != "" {
			cfg.GradebookPort = port
		}
		log := logger.New("gradebook-api")
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := openGradebookDB(cfg, log)
		if err != nil {
			return err
		}
		defer store.Close(db)

		Success("gradebook API listening on %s", addr(cfg.GradebookPort))
		return runServer(ctx, addr(cfg.GradebookPort), SetupGradebookRouter(db, log), log)
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "", "admin username")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("password")
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("configuration: %w", err)
	}
	return cfg, nil
}

func openRestaurantDB(ctx context.Context, cfg config.Config, log *logrus.Entry) (*gorm.DB, error) {
	db, err := store.Open(ctx, store.Options{DatabaseURL: cfg.DatabaseURL, SQLitePath: cfg.SQLitePath}, log)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(db, models.Restaurant()...); err != nil {
		store.Close(db)
		return nil, err
	}
	return db, nil
}

func openGradebookDB(cfg config.Config, log *logrus.Entry) (*gorm.DB, error) {
	db, err := store.OpenSQLite(cfg.GradebookDB, log)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(db, models.Gradebook()...); err != nil {
		store.Close(db)
		return nil, err
	}
	return db, nil
}
