package query

import (
	"context"

	"github.com/google/uuid"

	"github.com/alem-hub/study-dept/internal/domain/student"
	"github.com/alem-hub/study-dept/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUGGEST NAMES QUERY
// Name autocompletion. Results are cached by the normalized query words, so
// "peter john" and "John  PETER peter" share one cache entry.
// ══════════════════════════════════════════════════════════════════════════════

// SuggestNamesQuery contains the autocompletion input.
type SuggestNamesQuery struct {
	Query string

	// CorrelationID for tracing. Generated when empty.
	CorrelationID string
}

// SuggestNamesResult contains the matching full names.
type SuggestNamesResult struct {
	// Names - distinct full names in lexicographic order.
	Names []string `json:"names"`

	// FromCache - the result was served by the suggestion cache.
	FromCache bool `json:"from_cache"`

	CorrelationID string `json:"correlation_id"`
}

// SuggestNamesHandler handles the SuggestNamesQuery.
type SuggestNamesHandler struct {
	dept  *student.StudyDept
	cache student.SuggestionCache // Optional
	log   *logger.Logger
}

// NewSuggestNamesHandler creates a new SuggestNamesHandler. cache may be nil.
func NewSuggestNamesHandler(
	dept *student.StudyDept,
	cache student.SuggestionCache,
	log *logger.Logger,
) *SuggestNamesHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &SuggestNamesHandler{
		dept:  dept,
		cache: cache,
		log:   log.With(logger.Component("suggest_names")),
	}
}

// Handle executes the suggest query. Cache failures never fail the query.
func (h *SuggestNamesHandler) Handle(ctx context.Context, q SuggestNamesQuery) (*SuggestNamesResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.CorrelationID == "" {
		q.CorrelationID = uuid.NewString()
	}

	words := student.QueryWords(q.Query)
	log := h.log.With(logger.CorrelationID(q.CorrelationID), logger.QueryWords(words))

	if h.cache != nil {
		names, found, err := h.cache.Get(ctx, words)
		switch {
		case err != nil:
			log.Warn("suggestion cache read failed", logger.Err(err))
		case found:
			log.Debug("suggestion cache hit", logger.ResultCount(len(names)))
			return &SuggestNamesResult{Names: names, FromCache: true, CorrelationID: q.CorrelationID}, nil
		}
	}

	names := h.dept.Suggest(q.Query)
	log.Debug("suggestions computed", logger.ResultCount(len(names)))

	if h.cache != nil {
		if err := h.cache.Set(ctx, words, names); err != nil {
			log.Warn("suggestion cache write failed", logger.Err(err))
		}
	}

	return &SuggestNamesResult{Names: names, CorrelationID: q.CorrelationID}, nil
}
