// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/alem-hub/study-dept/internal/domain/shared"
	"github.com/alem-hub/study-dept/internal/domain/student"
	"github.com/alem-hub/study-dept/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLL STUDENT COMMAND
// Adds a student to the directory. The directory itself reports a duplicate
// with a false flag; here it becomes ErrStudentAlreadyExists.
// ══════════════════════════════════════════════════════════════════════════════

// EnrollStudentCommand contains the data of the student to add.
type EnrollStudentCommand struct {
	Name           string
	BirthDate      student.Date
	EnrollmentYear int

	// CorrelationID for tracing. Generated when empty.
	CorrelationID string
}

// Student returns the domain value described by the command.
func (c EnrollStudentCommand) Student() student.Student {
	return student.NewStudent(c.Name, c.BirthDate, c.EnrollmentYear)
}

// EnrollStudentResult contains the result of an enrollment.
type EnrollStudentResult struct {
	// Student is the stored copy, with its identity assigned.
	Student student.Student

	// Total is the number of stored students after the enrollment.
	Total int

	CorrelationID string
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// EnrollStudentHandler handles the EnrollStudentCommand.
type EnrollStudentHandler struct {
	dept  *student.StudyDept
	cache student.SuggestionCache // Optional cache for invalidation
	log   *logger.Logger
}

// NewEnrollStudentHandler creates a new EnrollStudentHandler.
// cache may be nil.
func NewEnrollStudentHandler(
	dept *student.StudyDept,
	cache student.SuggestionCache,
	log *logger.Logger,
) *EnrollStudentHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &EnrollStudentHandler{
		dept:  dept,
		cache: cache,
		log:   log.With(logger.Component("enroll_student")),
	}
}

// Handle executes the enroll command.
func (h *EnrollStudentHandler) Handle(
	ctx context.Context,
	cmd EnrollStudentCommand,
) (*EnrollStudentResult, error) {
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = uuid.NewString()
	}
	log := h.log.With(logger.CorrelationID(cmd.CorrelationID), logger.StudentName(cmd.Name))

	s := cmd.Student()
	if !h.dept.AddStudent(s) {
		log.Warn("duplicate student rejected",
			logger.String("birth_date", s.BirthDate.String()),
			logger.Int("enrollment_year", s.EnrollmentYear))
		return nil, fmt.Errorf("enroll_student: %s: %w", s, shared.ErrStudentAlreadyExists)
	}

	stored, _ := h.dept.Lookup(s)
	log.Debug("student enrolled", logger.Identity(uint64(stored.ID())))

	invalidateSuggestions(ctx, h.cache, log)

	return &EnrollStudentResult{
		Student:       stored,
		Total:         h.dept.Len(),
		CorrelationID: cmd.CorrelationID,
	}, nil
}

// invalidateSuggestions drops cached suggestions after a write.
// Failures are logged: a stale cache entry expires by TTL.
func invalidateSuggestions(ctx context.Context, cache student.SuggestionCache, log *logger.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		log.Warn("failed to invalidate suggestion cache", logger.Err(err))
	}
}
