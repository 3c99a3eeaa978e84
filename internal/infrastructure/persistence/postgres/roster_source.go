package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/study-dept/internal/domain/shared"
	"github.com/alem-hub/study-dept/internal/domain/student"
	"github.com/alem-hub/study-dept/pkg/logger"
	"github.com/alem-hub/study-dept/pkg/retry"
)

// RosterSource loads students from a table with the columns
// name, birth_year, birth_month, birth_day, enrollment_year.
type RosterSource struct {
	db      Querier
	table   string
	retrier *retry.Retrier
	log     *logger.Logger
}

// NewRosterSource creates a RosterSource. table must already be validated
// as a plain SQL identifier; maxAttempts < 1 means a single attempt.
func NewRosterSource(db Querier, table string, maxAttempts int, log *logger.Logger) *RosterSource {
	if log == nil {
		log = logger.Nop()
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	log = log.With(logger.Component("postgres_roster"))
	onRetry := func(attempt int, err error, delay time.Duration) {
		log.Warn("roster query failed, retrying",
			logger.Int("attempt", attempt), logger.Duration("delay", delay), logger.Err(err))
	}
	return &RosterSource{
		db:      db,
		table:   table,
		retrier: retry.DatabaseRetrier(maxAttempts, retry.WithOnRetry(onRetry)),
		log:     log,
	}
}

func (r *RosterSource) query() string {
	return fmt.Sprintf(
		"SELECT name, birth_year, birth_month, birth_day, enrollment_year FROM %s ORDER BY id",
		pgx.Identifier(strings.Split(r.table, ".")).Sanitize(),
	)
}

// Load reads the whole roster in table order.
func (r *RosterSource) Load(ctx context.Context) ([]student.Student, error) {
	var students []student.Student

	err := r.retrier.Do(ctx, func(ctx context.Context) error {
		loaded, err := r.load(ctx)
		if err != nil {
			return err
		}
		students = loaded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("postgres roster %s: %w: %w", r.table, shared.ErrRosterUnavailable, err)
	}

	r.log.Info("roster loaded", logger.ResultCount(len(students)))
	return students, nil
}

func (r *RosterSource) load(ctx context.Context) ([]student.Student, error) {
	rows, err := r.db.Query(ctx, r.query())
	if err != nil {
		if isSchemaMismatch(err) {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}
	defer rows.Close()

	students := make([]student.Student, 0)
	for rows.Next() {
		var (
			name             string
			year, month, day int
			enrollmentYear   int
		)
		if err := rows.Scan(&name, &year, &month, &day, &enrollmentYear); err != nil {
			return nil, retry.Permanent(fmt.Errorf("scan row %d: %w", len(students)+1, err))
		}
		students = append(students, student.NewStudent(name, student.NewDate(year, month, day), enrollmentYear))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return students, nil
}
