package student

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// CACHE INTERFACE
// Кеш результатов Suggest (реализация в infrastructure/persistence/redis).
// ══════════════════════════════════════════════════════════════════════════════

// SuggestionCache хранит результаты подсказок, ключ - QueryWords запроса.
type SuggestionCache interface {
	// Get возвращает закешированные имена; found=false при промахе.
	Get(ctx context.Context, words []string) (names []string, found bool, err error)

	// Set сохраняет результат подсказки.
	Set(ctx context.Context, words []string, names []string) error

	// Invalidate делает недоступными все ранее сохранённые результаты.
	// Вызывается после любого изменения справочника.
	Invalidate(ctx context.Context) error
}
