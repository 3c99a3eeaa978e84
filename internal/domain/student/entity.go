package student

import "fmt"

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Identity - внутренний дескриптор, выдаваемый справочником при добавлении.
// Не участвует ни в доменном равенстве, ни в сортировке.
type Identity uint64

// Key - кортеж доменного равенства (имя, дата рождения, год поступления).
// Сравнимый тип, поэтому годится как ключ map.
type Key struct {
	Name           string
	BirthDate      Date
	EnrollmentYear int
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Student - запись справочника. Передаётся по значению: справочник хранит
// собственные копии, поэтому изменение копии вызывающей стороны не влияет
// на хранимое состояние.
type Student struct {
	Name           string `json:"name"`
	BirthDate      Date   `json:"birth_date"`
	EnrollmentYear int    `json:"enrollment_year"`

	id Identity
}

// NewStudent создаёт студента без идентичности.
func NewStudent(name string, born Date, enrolled int) Student {
	return Student{
		Name:           name,
		BirthDate:      born,
		EnrollmentYear: enrolled,
	}
}

// ID возвращает идентичность, выданную справочником (0 - не хранится).
func (s Student) ID() Identity {
	return s.id
}

// Key возвращает кортеж доменного равенства.
func (s Student) Key() Key {
	return Key{
		Name:           s.Name,
		BirthDate:      s.BirthDate,
		EnrollmentYear: s.EnrollmentYear,
	}
}

// Equal сообщает о доменном равенстве. Identity не учитывается.
func (s Student) Equal(other Student) bool {
	return s.Key() == other.Key()
}

// String возвращает человекочитаемое представление.
func (s Student) String() string {
	return fmt.Sprintf("%s (%s, %d)", s.Name, s.BirthDate, s.EnrollmentYear)
}
