package student

import (
	"slices"
	"strings"
)

// Нормализация имён. Здесь две разные семантики, и их нельзя смешивать:
//
//   - nameMultiset: отсортированный список слов с повторами (Filter.Name)
//   - wordSet: множество различных слов (Suggest)
//
// Разбиение по пробельным символам, регистр приводится только для ASCII.

// splitLower разбивает строку на слова в нижнем регистре.
func splitLower(s string) []string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = asciiLower(w)
	}
	return words
}

// nameMultiset возвращает отсортированные слова имени, сохраняя повторы.
func nameMultiset(name string) []string {
	words := splitLower(name)
	slices.Sort(words)
	return words
}

// wordSet возвращает множество различных слов.
func wordSet(s string) map[string]struct{} {
	words := splitLower(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// QueryWords возвращает различные слова запроса подсказок в нижнем регистре,
// отсортированные лексикографически. Запросы с одинаковым результатом
// дают одинаковый список, поэтому он годится как ключ кеша.
func QueryWords(query string) []string {
	words := nameMultiset(query)
	return slices.Compact(words)
}

func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}
