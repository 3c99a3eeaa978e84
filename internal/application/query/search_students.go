// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/alem-hub/study-dept/internal/domain/shared"
	"github.com/alem-hub/study-dept/internal/domain/student"
	"github.com/alem-hub/study-dept/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEARCH STUDENTS QUERY
// Filters the directory and orders the result. Paging is applied after the
// directory has sorted the full filtered sequence.
// ══════════════════════════════════════════════════════════════════════════════

// SearchStudentsQuery contains the search parameters.
type SearchStudentsQuery struct {
	Filter student.Filter
	Sort   student.Sort

	// Offset - number of leading results to skip.
	Offset int

	// Limit - maximum number of results (0 = unlimited).
	Limit int

	// CorrelationID for tracing. Generated when empty.
	CorrelationID string
}

// Validate checks the paging parameters.
func (q *SearchStudentsQuery) Validate() error {
	if q.Offset < 0 {
		return shared.NewDomainError("query", "SearchStudents", shared.ErrValueOutOfRange, "offset must not be negative")
	}
	if q.Limit < 0 {
		return shared.NewDomainError("query", "SearchStudents", shared.ErrValueOutOfRange, "limit must not be negative")
	}
	return nil
}

// StudentDTO is the read model of a stored student.
type StudentDTO struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	BirthDate      string `json:"birth_date"`
	EnrollmentYear int    `json:"enrollment_year"`
}

// NewStudentDTO maps a domain student to its read model.
func NewStudentDTO(s student.Student) StudentDTO {
	return StudentDTO{
		ID:             uint64(s.ID()),
		Name:           s.Name,
		BirthDate:      s.BirthDate.String(),
		EnrollmentYear: s.EnrollmentYear,
	}
}

// SearchStudentsResult contains the search result.
type SearchStudentsResult struct {
	// Students - the requested page, in search order.
	Students []StudentDTO `json:"students"`

	// TotalFound - number of matches before paging.
	TotalFound int `json:"total_found"`

	CorrelationID string `json:"correlation_id"`
}

// SearchStudentsHandler handles the SearchStudentsQuery.
type SearchStudentsHandler struct {
	dept *student.StudyDept
	log  *logger.Logger
	now  func() time.Time
}

// NewSearchStudentsHandler creates a new SearchStudentsHandler.
func NewSearchStudentsHandler(dept *student.StudyDept, log *logger.Logger) *SearchStudentsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &SearchStudentsHandler{
		dept: dept,
		log:  log.With(logger.Component("search_students")),
		now:  time.Now,
	}
}

// Handle executes the search query.
func (h *SearchStudentsHandler) Handle(ctx context.Context, q SearchStudentsQuery) (*SearchStudentsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.CorrelationID == "" {
		q.CorrelationID = uuid.NewString()
	}

	start := h.now()
	found := h.dept.Search(q.Filter, q.Sort)
	page := paginate(found, q.Offset, q.Limit)

	students := make([]StudentDTO, 0, len(page))
	for _, s := range page {
		students = append(students, NewStudentDTO(s))
	}

	h.log.Debug("search completed",
		logger.CorrelationID(q.CorrelationID),
		logger.ResultCount(len(found)),
		logger.Latency(h.now().Sub(start)))

	return &SearchStudentsResult{
		Students:      students,
		TotalFound:    len(found),
		CorrelationID: q.CorrelationID,
	}, nil
}

func paginate(all []student.Student, offset, limit int) []student.Student {
	if offset >= len(all) {
		return nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}
