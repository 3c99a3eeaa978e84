package student

import "slices"

// Filter - построитель предиката по пяти независимым измерениям.
// В каждом измерении хранится не более одного значения: повторный вызов
// заменяет предыдущее. Активные измерения объединяются через И.
//
// Методы используют получатель по значению и возвращают изменённую копию,
// поэтому исходный фильтр не меняется.
type Filter struct {
	name           []string // nameMultiset запроса
	hasName        bool
	bornBefore     *Date
	bornAfter      *Date
	enrolledBefore *int
	enrolledAfter  *int
}

// NewFilter возвращает пустой фильтр, которому соответствует любой студент.
func NewFilter() Filter {
	return Filter{}
}

// Name требует совпадения мультимножества слов имени (без учёта регистра и порядка).
func (f Filter) Name(name string) Filter {
	f.name = nameMultiset(name)
	f.hasName = true
	return f
}

// BornBefore требует дату рождения строго раньше d.
func (f Filter) BornBefore(d Date) Filter {
	f.bornBefore = &d
	return f
}

// BornAfter требует дату рождения строго позже d.
func (f Filter) BornAfter(d Date) Filter {
	f.bornAfter = &d
	return f
}

// EnrolledBefore требует год поступления строго меньше year.
func (f Filter) EnrolledBefore(year int) Filter {
	f.enrolledBefore = &year
	return f
}

// EnrolledAfter требует год поступления строго больше year.
func (f Filter) EnrolledAfter(year int) Filter {
	f.enrolledAfter = &year
	return f
}

// IsEmpty сообщает, что ни одно измерение не задано.
func (f Filter) IsEmpty() bool {
	return !f.hasName &&
		f.bornBefore == nil &&
		f.bornAfter == nil &&
		f.enrolledBefore == nil &&
		f.enrolledAfter == nil
}

// Matches вычисляет предикат для студента.
func (f Filter) Matches(s Student) bool {
	if f.hasName && !slices.Equal(nameMultiset(s.Name), f.name) {
		return false
	}
	if f.bornBefore != nil && !s.BirthDate.Before(*f.bornBefore) {
		return false
	}
	if f.bornAfter != nil && !s.BirthDate.After(*f.bornAfter) {
		return false
	}
	if f.enrolledBefore != nil && !(s.EnrollmentYear < *f.enrolledBefore) {
		return false
	}
	if f.enrolledAfter != nil && !(s.EnrollmentYear > *f.enrolledAfter) {
		return false
	}
	return true
}
