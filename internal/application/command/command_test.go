package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/study-dept/internal/domain/shared"
	"github.com/alem-hub/study-dept/internal/domain/student"
)

// fakeCache records invalidations and can be told to fail.
type fakeCache struct {
	invalidations int
	err           error
}

func (f *fakeCache) Get(ctx context.Context, words []string) ([]string, bool, error) {
	return nil, false, nil
}

func (f *fakeCache) Set(ctx context.Context, words []string, names []string) error {
	return nil
}

func (f *fakeCache) Invalidate(ctx context.Context) error {
	f.invalidations++
	return f.err
}

func enrollCmd(name string, y, m, d, year int) EnrollStudentCommand {
	return EnrollStudentCommand{
		Name:           name,
		BirthDate:      student.NewDate(y, m, d),
		EnrollmentYear: year,
	}
}

func TestEnrollStudent(t *testing.T) {
	ctx := context.Background()
	dept := student.NewStudyDept()
	cache := &fakeCache{}
	h := NewEnrollStudentHandler(dept, cache, nil)

	res, err := h.Handle(ctx, enrollCmd("Peter Taylor", 1982, 2, 23, 2011))
	require.NoError(t, err)
	assert.Equal(t, student.Identity(1), res.Student.ID())
	assert.Equal(t, 1, res.Total)
	assert.NotEmpty(t, res.CorrelationID)
	assert.Equal(t, 1, cache.invalidations)

	cmd := enrollCmd("Peter Taylor", 1982, 2, 23, 2011)
	cmd.CorrelationID = "req-7"
	_, err = h.Handle(ctx, cmd)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrStudentAlreadyExists)
	assert.True(t, shared.IsAlreadyExists(err))
	assert.Equal(t, 1, dept.Len())
	assert.Equal(t, 1, cache.invalidations, "rejected write must not invalidate")
}

func TestEnrollStudent_CacheFailureIsNotFatal(t *testing.T) {
	dept := student.NewStudyDept()
	h := NewEnrollStudentHandler(dept, &fakeCache{err: errors.New("redis down")}, nil)

	_, err := h.Handle(context.Background(), enrollCmd("John Taylor", 1981, 6, 30, 2012))
	require.NoError(t, err)
	assert.Equal(t, 1, dept.Len())
}

func TestEnrollStudent_NilCache(t *testing.T) {
	h := NewEnrollStudentHandler(student.NewStudyDept(), nil, nil)

	res, err := h.Handle(context.Background(), enrollCmd("John Taylor", 1981, 6, 30, 2012))
	require.NoError(t, err)
	assert.Equal(t, "John Taylor", res.Student.Name)
}

func TestRemoveStudent(t *testing.T) {
	ctx := context.Background()
	dept := student.NewStudyDept()
	cache := &fakeCache{}
	enroll := NewEnrollStudentHandler(dept, cache, nil)
	remove := NewRemoveStudentHandler(dept, cache, nil)

	_, err := enroll.Handle(ctx, enrollCmd("James Bond", 1981, 7, 16, 2013))
	require.NoError(t, err)
	_, err = enroll.Handle(ctx, enrollCmd("Bond James", 1981, 7, 16, 2013))
	require.NoError(t, err)

	res, err := remove.Handle(ctx, RemoveStudentCommand{
		Name:           "James Bond",
		BirthDate:      student.NewDate(1981, 7, 16),
		EnrollmentYear: 2013,
	})
	require.NoError(t, err)
	assert.Equal(t, student.Identity(1), res.Removed.ID())
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 3, cache.invalidations)

	_, err = remove.Handle(ctx, RemoveStudentCommand{
		Name:           "James Bond",
		BirthDate:      student.NewDate(1981, 7, 16),
		EnrollmentYear: 2013,
	})
	assert.ErrorIs(t, err, shared.ErrStudentNotFound)
	assert.True(t, shared.IsNotFound(err))
	assert.Equal(t, 1, dept.Len())
	assert.Equal(t, 3, cache.invalidations)
}
