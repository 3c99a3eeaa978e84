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
// REMOVE STUDENT COMMAND
// Removes the student matching name, birth date and enrollment year.
// ══════════════════════════════════════════════════════════════════════════════

// RemoveStudentCommand identifies the student by its domain key.
type RemoveStudentCommand struct {
	Name           string
	BirthDate      student.Date
	EnrollmentYear int

	// CorrelationID for tracing. Generated when empty.
	CorrelationID string
}

// Student returns the domain value described by the command.
func (c RemoveStudentCommand) Student() student.Student {
	return student.NewStudent(c.Name, c.BirthDate, c.EnrollmentYear)
}

// RemoveStudentResult contains the result of a removal.
type RemoveStudentResult struct {
	// Removed is the copy that was stored before removal.
	Removed student.Student

	// Total is the number of stored students after the removal.
	Total int

	CorrelationID string
}

// RemoveStudentHandler handles the RemoveStudentCommand.
type RemoveStudentHandler struct {
	dept  *student.StudyDept
	cache student.SuggestionCache
	log   *logger.Logger
}

// NewRemoveStudentHandler creates a new RemoveStudentHandler.
// cache may be nil.
func NewRemoveStudentHandler(
	dept *student.StudyDept,
	cache student.SuggestionCache,
	log *logger.Logger,
) *RemoveStudentHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RemoveStudentHandler{
		dept:  dept,
		cache: cache,
		log:   log.With(logger.Component("remove_student")),
	}
}

// Handle executes the remove command.
func (h *RemoveStudentHandler) Handle(
	ctx context.Context,
	cmd RemoveStudentCommand,
) (*RemoveStudentResult, error) {
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = uuid.NewString()
	}
	log := h.log.With(logger.CorrelationID(cmd.CorrelationID), logger.StudentName(cmd.Name))

	s := cmd.Student()
	stored, found := h.dept.Lookup(s)
	if !found || !h.dept.DelStudent(s) {
		log.Warn("student to remove not found")
		return nil, fmt.Errorf("remove_student: %s: %w", s, shared.ErrStudentNotFound)
	}

	log.Debug("student removed", logger.Identity(uint64(stored.ID())))

	invalidateSuggestions(ctx, h.cache, log)

	return &RemoveStudentResult{
		Removed:       stored,
		Total:         h.dept.Len(),
		CorrelationID: cmd.CorrelationID,
	}, nil
}
