package student

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ignoreIdentity = cmpopts.IgnoreUnexported(Student{})

// populatedDept builds the ten-student roster used by the reference scenario.
func populatedDept(t *testing.T) (*StudyDept, []Student) {
	t.Helper()

	roster := []Student{
		NewStudent("John Peter Taylor", NewDate(1983, 7, 13), 2014),
		NewStudent("John Taylor", NewDate(1981, 6, 30), 2012),
		NewStudent("Peter Taylor", NewDate(1982, 2, 23), 2011),
		NewStudent("Peter John Taylor", NewDate(1984, 1, 17), 2017),
		NewStudent("James Bond", NewDate(1981, 7, 16), 2013),
		NewStudent("James Bond", NewDate(1982, 7, 16), 2013),
		NewStudent("James Bond", NewDate(1981, 8, 16), 2013),
		NewStudent("James Bond", NewDate(1981, 7, 17), 2013),
		NewStudent("James Bond", NewDate(1981, 7, 16), 2012),
		NewStudent("Bond James", NewDate(1981, 7, 16), 2013),
	}

	dept := NewStudyDept()
	for _, s := range roster {
		require.True(t, dept.AddStudent(s), "add %s", s)
	}
	return dept, roster
}

func assertStudents(t *testing.T, want, got []Student) {
	t.Helper()
	if diff := cmp.Diff(want, got, ignoreIdentity); diff != "" {
		t.Errorf("students mismatch (-want +got):\n%s", diff)
	}
}

func TestStudyDept_SearchBaselineKeepsInsertionOrder(t *testing.T) {
	dept, roster := populatedDept(t)

	assertStudents(t, roster, dept.Search(NewFilter(), NewSort()))
}

func TestStudyDept_AddRejectsDuplicate(t *testing.T) {
	dept := NewStudyDept()
	s := NewStudent("James Bond", NewDate(1980, 4, 11), 2010)

	assert.True(t, dept.AddStudent(s))
	assert.False(t, dept.AddStudent(s))
	assert.Equal(t, 1, dept.Len())

	// Same name and date, different year is a different student.
	assert.True(t, dept.AddStudent(NewStudent("James Bond", NewDate(1980, 4, 11), 2016)))
	assert.Equal(t, 2, dept.Len())
}

func TestStudyDept_AddAssignsIncreasingIdentity(t *testing.T) {
	dept := NewStudyDept()
	a := NewStudent("A", NewDate(2000, 1, 1), 2020)
	b := NewStudent("B", NewDate(2000, 1, 1), 2020)

	require.True(t, dept.AddStudent(a))
	require.True(t, dept.DelStudent(a))
	require.True(t, dept.AddStudent(b))
	require.True(t, dept.AddStudent(a))

	got := dept.Search(NewFilter(), NewSort())
	require.Len(t, got, 2)
	assert.Equal(t, Identity(2), got[0].ID())
	assert.Equal(t, Identity(3), got[1].ID())
	assert.Equal(t, Identity(0), a.ID(), "caller's copy is not touched")
}

func TestStudyDept_DelStudent(t *testing.T) {
	dept, roster := populatedDept(t)
	target := NewStudent("James Bond", NewDate(1981, 7, 16), 2013)

	assert.True(t, dept.DelStudent(target))
	assert.Equal(t, len(roster)-1, dept.Len())
	assert.False(t, dept.DelStudent(target))
	assert.Equal(t, len(roster)-1, dept.Len())

	assert.False(t, dept.DelStudent(NewStudent("Nobody", NewDate(1, 1, 1), 1)))
	assert.Equal(t, len(roster)-1, dept.Len())

	want := append([]Student{}, roster[:4]...)
	want = append(want, roster[5:]...)
	assertStudents(t, want, dept.Search(NewFilter(), NewSort()))

	// Removal frees the key for a fresh insert at the end.
	assert.True(t, dept.AddStudent(target))
	got := dept.Search(NewFilter(), NewSort())
	assert.Equal(t, target.Key(), got[len(got)-1].Key())
}

func TestStudyDept_SearchDoesNotAliasStorage(t *testing.T) {
	dept, roster := populatedDept(t)

	first := dept.Search(NewFilter(), NewSort())
	first[0].Name = "Mutated"

	assertStudents(t, roster, dept.Search(NewFilter(), NewSort()))
}

func TestStudyDept_SearchSortedByName(t *testing.T) {
	dept, r := populatedDept(t)

	want := []Student{r[9], r[4], r[5], r[6], r[7], r[8], r[0], r[1], r[3], r[2]}
	assertStudents(t, want, dept.Search(NewFilter(), NewSort().AddKey(SortByName, true)))

	want = []Student{r[2], r[3], r[1], r[0], r[4], r[5], r[6], r[7], r[8], r[9]}
	assertStudents(t, want, dept.Search(NewFilter(), NewSort().AddKey(SortByName, false)))
}

func TestStudyDept_SearchMultiKeySort(t *testing.T) {
	dept, r := populatedDept(t)
	sort := NewSort().
		AddKey(SortByEnrollmentYear, false).
		AddKey(SortByBirthDate, false).
		AddKey(SortByName, true)

	want := []Student{r[3], r[0], r[5], r[6], r[7], r[9], r[4], r[8], r[1], r[2]}
	assertStudents(t, want, dept.Search(NewFilter(), sort))

	want = []Student{r[5], r[6], r[7], r[9], r[4], r[8]}
	assertStudents(t, want, dept.Search(NewFilter().Name("james bond"), sort))
}

func TestStudyDept_SearchNameFilterIsLastWriteWins(t *testing.T) {
	dept, r := populatedDept(t)
	sort := NewSort().
		AddKey(SortByEnrollmentYear, false).
		AddKey(SortByBirthDate, false).
		AddKey(SortByName, true)

	flt := NewFilter().
		BornAfter(NewDate(1980, 4, 11)).
		BornBefore(NewDate(1983, 7, 13)).
		Name("John Taylor").
		Name("james BOND")

	// Only the second name is active; "John Taylor" is replaced.
	want := []Student{r[5], r[6], r[7], r[9], r[4], r[8]}
	assertStudents(t, want, dept.Search(flt, sort))
}

func TestStudyDept_SearchSingleWordNameMatchesNothing(t *testing.T) {
	dept, _ := populatedDept(t)

	got := dept.Search(NewFilter().Name("james"), NewSort().AddKey(SortByName, true))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStudyDept_SearchEndToEnd(t *testing.T) {
	dept := NewStudyDept()
	a := NewStudent("John Peter Taylor", NewDate(1983, 7, 13), 2014)
	b := NewStudent("Peter Taylor", NewDate(1982, 2, 23), 2011)
	require.True(t, dept.AddStudent(a))
	require.True(t, dept.AddStudent(b))

	assertStudents(t, []Student{b}, dept.Search(NewFilter().Name("peter taylor"), NewSort()))
	assert.Equal(t, []string{"John Peter Taylor", "Peter Taylor"}, dept.Suggest("peter"))
}

func TestStudyDept_Suggest(t *testing.T) {
	dept, _ := populatedDept(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"peter", []string{"John Peter Taylor", "Peter John Taylor", "Peter Taylor"}},
		{"bond", []string{"Bond James", "James Bond"}},
		{"bond bond", []string{"Bond James", "James Bond"}},
		{"peter joHn", []string{"John Peter Taylor", "Peter John Taylor"}},
		{"peter joHn PETER", []string{"John Peter Taylor", "Peter John Taylor"}},
		{"peter joHn bond", []string{}},
		{"bond james extra", []string{}},
		{"pete", []string{}},
		{"   ", []string{
			"Bond James", "James Bond", "John Peter Taylor",
			"John Taylor", "Peter John Taylor", "Peter Taylor",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, dept.Suggest(tt.query))
		})
	}
}

func TestStudyDept_SuggestIgnoresRepeatedCandidateWords(t *testing.T) {
	dept := NewStudyDept()
	require.True(t, dept.AddStudent(NewStudent("James Bond Bond", NewDate(1990, 1, 1), 2010)))

	assert.Equal(t, []string{"James Bond Bond"}, dept.Suggest("bond"))
	assert.Empty(t, dept.Search(NewFilter().Name("James Bond"), NewSort()))
}
