package student

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"github.com/alem-hub/study-dept/internal/domain/shared"
)

// Date - дата из трёх целых чисел (год, месяц, день).
// Порядок лексикографический, календарная корректность не проверяется.
type Date struct {
	Year  int
	Month int
	Day   int
}

// NewDate создаёт дату без валидации.
func NewDate(year, month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate разбирает дату в формате "Y-M-D".
// Части могут быть любыми целыми числами, в том числе без ведущих нулей.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return Date{}, shared.WrapError("student", "ParseDate", shared.ErrInvalidDate,
			"date must be in Y-M-D form", fmt.Errorf("%q", s))
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, shared.WrapError("student", "ParseDate", shared.ErrInvalidDate,
				"date must be in Y-M-D form", err)
		}
		nums[i] = n
	}

	return NewDate(nums[0], nums[1], nums[2]), nil
}

// Compare возвращает -1, 0 или +1.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return cmp.Compare(d.Year, other.Year)
	case d.Month != other.Month:
		return cmp.Compare(d.Month, other.Month)
	default:
		return cmp.Compare(d.Day, other.Day)
	}
}

// Before сообщает, строго ли d раньше other.
func (d Date) Before(other Date) bool {
	return d.Compare(other) < 0
}

// After сообщает, строго ли d позже other.
func (d Date) After(other Date) bool {
	return d.Compare(other) > 0
}

// String возвращает дату в формате "Y-M-D".
func (d Date) String() string {
	return fmt.Sprintf("%d-%d-%d", d.Year, d.Month, d.Day)
}

// MarshalText реализует encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
