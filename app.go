package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"minihospital/config"
	"minihospital/controllers"
	"minihospital/database"
	"minihospital/logging"
	"minihospital/privacy"
	"minihospital/services"
	"minihospital/utils"
)

// application is the wired object graph shared by every command.
type application struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	store  *database.Store

	audit    *services.AuditService
	gate     *services.AccessGate
	patients *services.PatientService
	users    *services.UserService
	stats    *services.StatsService
	tokens   *utils.TokenIssuer
}

func newApplication(configPath string) (*application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	codec, err := privacy.NewCodec(cfg.FieldEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create field codec: %w", err)
	}

	db, err := database.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %s", logging.SanitizeError(err))
	}
	if err := database.RunMigrations(db, logger); err != nil {
		database.Close(db)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store := database.NewStore(db, codec)
	audit := services.NewAuditService(store, logger)
	gate := services.NewAccessGate(store, audit, cfg.ReverifyTTL(), logger)

	return &application{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		store:    store,
		audit:    audit,
		gate:     gate,
		patients: services.NewPatientService(store, codec, privacy.NewAnonymizer(codec, logger), audit, gate, logger),
		users:    services.NewUserService(store, audit, gate, logger),
		stats:    services.NewStatsService(store),
		tokens:   utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiration()),
	}, nil
}

func (a *application) handlers() *controllers.Handlers {
	return controllers.NewHandlers(controllers.Deps{
		Gate:          a.gate,
		Patients:      a.patients,
		Users:         a.users,
		Audit:         a.audit,
		Stats:         a.stats,
		Tokens:        a.tokens,
		Logger:        a.logger,
		RetentionDays: a.cfg.RetentionDays,
	})
}

func (a *application) ping(ctx context.Context) error {
	return a.store.Ping(ctx)
}

func (a *application) close() {
	if err := database.Close(a.db); err != nil {
		a.logger.Warn("failed to close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// exitOnError prints err and exits with status 1.
func exitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
