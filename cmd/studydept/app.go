package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/alem-hub/study-dept/config"
	"github.com/alem-hub/study-dept/internal/application/command"
	"github.com/alem-hub/study-dept/internal/application/query"
	"github.com/alem-hub/study-dept/internal/domain/shared"
	"github.com/alem-hub/study-dept/internal/domain/student"
	"github.com/alem-hub/study-dept/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/study-dept/internal/infrastructure/persistence/redis"
	"github.com/alem-hub/study-dept/internal/infrastructure/roster"
	"github.com/alem-hub/study-dept/pkg/circuitbreaker"
	"github.com/alem-hub/study-dept/pkg/logger"
	"github.com/alem-hub/study-dept/pkg/retry"
)

var errNoRoster = errors.New("no roster source: set --roster or --database-url")

// options - значения глобальных флагов.
type options struct {
	rosterFile  string
	databaseURL string
	logLevel    string
	removeFile  string
}

// app - собранное приложение: справочник, кеш и обработчики.
type app struct {
	cfg  *config.Config
	log  *logger.Logger
	dept *student.StudyDept

	cache   student.SuggestionCache
	redis   *redis.Cache
	breaker *circuitbreaker.CircuitBreaker
	closers []func()

	search  *query.SearchStudentsHandler
	suggest *query.SuggestNamesHandler
}

func newApp(ctx context.Context, opts options, logOut io.Writer) (*app, error) {
	// ─────────────────────────────────────────────────────────────────────────
	// Конфигурация: окружение, затем флаги
	// ─────────────────────────────────────────────────────────────────────────
	cfg := config.FromEnv()
	if opts.rosterFile != "" {
		cfg.Roster.File = opts.rosterFile
	}
	if opts.databaseURL != "" {
		cfg.Database.URL = opts.databaseURL
	}
	if opts.logLevel != "" {
		cfg.Observability.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log := logger.New(logger.Options{
		Output: logOut,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
		Format: logger.ParseFormat(cfg.Observability.LogFormat),
	}).With(logger.String("app", cfg.App.Name), logger.String("env", string(cfg.App.Environment)))

	a := &app{
		cfg:  cfg,
		log:  log,
		dept: student.NewStudyDept(),
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Redis (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Redis.Enabled {
		a.connectCache(ctx)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Ростер
	// ─────────────────────────────────────────────────────────────────────────
	if err := a.loadRoster(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if opts.removeFile != "" {
		if err := a.removeRoster(ctx, opts.removeFile); err != nil {
			a.Close()
			return nil, err
		}
	}

	// The in-memory directory was rebuilt, so results cached by earlier runs
	// may describe a different roster.
	if a.cache != nil {
		if err := a.cache.Invalidate(ctx); err != nil {
			log.Warn("suggestion cache invalidation failed", logger.Err(err))
		}
	}

	a.search = query.NewSearchStudentsHandler(a.dept, log)
	a.suggest = query.NewSuggestNamesHandler(a.dept, a.cache, log)

	log.Info("directory ready", logger.ResultCount(a.dept.Len()))
	return a, nil
}

// connectCache подключает Redis. Недоступный Redis не мешает работе.
func (a *app) connectCache(ctx context.Context) {
	c, err := redis.NewCache(ctx, redis.Options{
		Host:        a.cfg.Redis.Host,
		Port:        a.cfg.Redis.Port,
		Password:    a.cfg.Redis.Password,
		DB:          a.cfg.Redis.DB,
		DialTimeout: a.cfg.Redis.DialTimeout,
	})
	if err != nil {
		a.log.Warn("redis unavailable, suggestions will not be cached", logger.Err(err))
		return
	}

	breaker := circuitbreaker.CacheBreaker(func(name string, from, to circuitbreaker.State) {
		a.log.Warn("circuit breaker state changed",
			logger.String("breaker", name), logger.String("from", from.String()), logger.String("to", to.String()))
	})
	a.redis = c
	a.breaker = breaker
	a.cache = redis.NewSuggestionCache(c, a.cfg.Redis.Namespace, a.cfg.Redis.SuggestTTL).WithBreaker(breaker)
	a.closers = append(a.closers, func() { _ = c.Close() })
}

func (a *app) loadRoster(ctx context.Context) error {
	students, err := a.readRoster(ctx)
	if err != nil {
		return err
	}

	enroll := command.NewEnrollStudentHandler(a.dept, nil, a.log)
	for _, s := range students {
		_, err := enroll.Handle(ctx, command.EnrollStudentCommand{
			Name:           s.Name,
			BirthDate:      s.BirthDate,
			EnrollmentYear: s.EnrollmentYear,
		})
		if err != nil && !shared.IsAlreadyExists(err) {
			return err
		}
	}
	return nil
}

func (a *app) readRoster(ctx context.Context) ([]student.Student, error) {
	switch {
	case a.cfg.Roster.File != "":
		return roster.LoadFile(a.cfg.Roster.File)

	case a.cfg.Database.URL != "":
		ctx, cancel := context.WithTimeout(ctx, a.cfg.Database.QueryTimeout)
		defer cancel()

		var conn *postgres.Connection
		err := retry.DatabaseRetrier(a.cfg.Database.MaxRetries).Do(ctx, func(ctx context.Context) error {
			var err error
			conn, err = postgres.Open(ctx, a.cfg.Database.URL)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrRosterUnavailable, err)
		}
		defer conn.Close()

		src := postgres.NewRosterSource(conn, a.cfg.Database.RosterTable, a.cfg.Database.MaxRetries, a.log)
		return src.Load(ctx)

	default:
		return nil, errNoRoster
	}
}

func (a *app) removeRoster(ctx context.Context, path string) error {
	students, err := roster.LoadFile(path)
	if err != nil {
		return err
	}

	remove := command.NewRemoveStudentHandler(a.dept, nil, a.log)
	for _, s := range students {
		_, err := remove.Handle(ctx, command.RemoveStudentCommand{
			Name:           s.Name,
			BirthDate:      s.BirthDate,
			EnrollmentYear: s.EnrollmentYear,
		})
		if err != nil && !shared.IsNotFound(err) {
			return err
		}
	}
	return nil
}

// Close освобождает соединения.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
