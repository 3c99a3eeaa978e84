package student

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/alem-hub/study-dept/internal/domain/shared"
)

// SortKey - поле сортировки.
type SortKey int

const (
	// SortByName - лексикографическое сравнение полного имени.
	SortByName SortKey = iota
	// SortByBirthDate - сравнение дат рождения.
	SortByBirthDate
	// SortByEnrollmentYear - сравнение годов поступления.
	SortByEnrollmentYear
)

// String возвращает имя ключа в том виде, в каком его принимает ParseSortKey.
func (k SortKey) String() string {
	switch k {
	case SortByName:
		return "name"
	case SortByBirthDate:
		return "birth_date"
	case SortByEnrollmentYear:
		return "enrollment_year"
	default:
		return "unknown"
	}
}

// ParseSortKey разбирает имя ключа сортировки (без учёта регистра).
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name":
		return SortByName, nil
	case "birth_date", "born", "birthdate":
		return SortByBirthDate, nil
	case "enrollment_year", "enroll_year", "enrolled":
		return SortByEnrollmentYear, nil
	default:
		return 0, shared.WrapError("student", "ParseSortKey", shared.ErrInvalidSortKey, "unknown sort key", fmt.Errorf("%q", s))
	}
}

type sortTerm struct {
	key       SortKey
	ascending bool
}

// Sort - упорядоченный список пар (ключ, направление).
// Пустой список означает "порядок не задан": поиск сохраняет порядок добавления.
type Sort struct {
	terms []sortTerm
}

// NewSort возвращает пустую сортировку.
func NewSort() Sort {
	return Sort{}
}

// AddKey добавляет ключ в конец списка. Возвращает копию; исходная сортировка
// не меняется, даже если у копий общий базовый массив.
func (s Sort) AddKey(key SortKey, ascending bool) Sort {
	terms := make([]sortTerm, len(s.terms), len(s.terms)+1)
	copy(terms, s.terms)
	s.terms = append(terms, sortTerm{key: key, ascending: ascending})
	return s
}

// ParseSort собирает сортировку из термов вида "key" или "key:asc|desc".
// Первый терм имеет наивысший приоритет.
func ParseSort(terms []string) (Sort, error) {
	s := NewSort()
	for _, term := range terms {
		name, dir, _ := strings.Cut(term, ":")

		key, err := ParseSortKey(name)
		if err != nil {
			return Sort{}, err
		}

		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
			s = s.AddKey(key, true)
		case "desc":
			s = s.AddKey(key, false)
		default:
			return Sort{}, shared.WrapError("student", "ParseSort", shared.ErrInvalidInput,
				"sort direction must be asc or desc", fmt.Errorf("%q", term))
		}
	}
	return s, nil
}

// IsEmpty сообщает, что ключи не заданы.
func (s Sort) IsEmpty() bool {
	return len(s.terms) == 0
}

// Compare сравнивает студентов по ключам по очереди и возвращает первый
// ненулевой результат (с учётом направления). Если все ключи равны, 0.
func (s Sort) Compare(a, b Student) int {
	for _, t := range s.terms {
		var c int
		switch t.key {
		case SortByName:
			c = strings.Compare(a.Name, b.Name)
		case SortByBirthDate:
			c = a.BirthDate.Compare(b.BirthDate)
		case SortByEnrollmentYear:
			c = cmp.Compare(a.EnrollmentYear, b.EnrollmentYear)
		}
		if c == 0 {
			continue
		}
		if !t.ascending {
			return -c
		}
		return c
	}
	return 0
}
