package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/study-dept/internal/application/query"
	"github.com/alem-hub/study-dept/internal/domain/shared"
	"github.com/alem-hub/study-dept/pkg/circuitbreaker"
)

const rosterYAML = `students:
  - {name: John Peter Taylor, born: 1983-7-13, enrolled: 2014}
  - {name: John Taylor, born: 1981-6-30, enrolled: 2012}
  - {name: Peter Taylor, born: 1982-2-23, enrolled: 2011}
  - {name: Peter John Taylor, born: 1984-1-17, enrolled: 2017}
  - {name: John Taylor, born: 1981-6-30, enrolled: 2012}
  - {name: James Bond, born: 1981-7-16, enrolled: 2013}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "development")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("ROSTER_FILE", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	isolateEnv(t)

	var out bytes.Buffer
	c := &cli{}
	cmd := c.rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := c.execute(context.Background(), cmd)
	return out.String(), err
}

// trackClose makes the app built by root record when it is closed.
func trackClose(c *cli, root *cobra.Command, closed *bool) {
	preRun := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := preRun(cmd, args); err != nil {
			return err
		}
		c.app.closers = append(c.app.closers, func() { *closed = true })
		return nil
	}
}

func TestExecute_ClosesAppWhenCommandFails(t *testing.T) {
	isolateEnv(t)
	path := writeFile(t, "roster.yaml", rosterYAML)

	c := &cli{}
	root := c.rootCmd()
	var closed bool
	trackClose(c, root, &closed)
	root.SetArgs([]string{"--roster", path, "search", "--sort", "height"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := c.execute(context.Background(), root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--sort")
	assert.True(t, closed)
	assert.Nil(t, c.app)
}

func TestExecute_ClosesAppOnSuccess(t *testing.T) {
	isolateEnv(t)
	path := writeFile(t, "roster.yaml", rosterYAML)

	c := &cli{}
	root := c.rootCmd()
	var closed bool
	trackClose(c, root, &closed)
	root.SetArgs([]string{"--roster", path, "suggest", "bond"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	require.NoError(t, c.execute(context.Background(), root))
	assert.True(t, closed)
}

func TestSearch_Text(t *testing.T) {
	path := writeFile(t, "roster.yaml", rosterYAML)

	out, err := run(t, "--roster", path, "search",
		"--enrolled-after", "2011", "--born-before", "1984-1-1", "--sort", "name:desc")
	require.NoError(t, err)

	assert.Equal(t, "John Taylor (1981-6-30, 2012)\n"+
		"John Peter Taylor (1983-7-13, 2014)\n"+
		"James Bond (1981-7-16, 2013)\n", out)
}

func TestSearch_JSON(t *testing.T) {
	path := writeFile(t, "roster.yaml", rosterYAML)

	out, err := run(t, "--roster", path, "search", "--name", "TAYLOR john", "--json")
	require.NoError(t, err)

	var res query.SearchStudentsResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.TotalFound)
	require.Len(t, res.Students, 1)
	assert.Equal(t, query.StudentDTO{ID: 2, Name: "John Taylor", BirthDate: "1981-6-30", EnrollmentYear: 2012}, res.Students[0])
}

func TestSearch_Paging(t *testing.T) {
	path := writeFile(t, "roster.yaml", rosterYAML)

	out, err := run(t, "--roster", path, "search", "--sort", "birth_date", "--offset", "1", "--limit", "2")
	require.NoError(t, err)
	assert.Equal(t, "James Bond (1981-7-16, 2013)\nPeter Taylor (1982-2-23, 2011)\n", out)
}

func TestSearch_BadFlags(t *testing.T) {
	path := writeFile(t, "roster.yaml", rosterYAML)

	_, err := run(t, "--roster", path, "search", "--sort", "age")
	assert.True(t, shared.IsValidation(err))

	_, err = run(t, "--roster", path, "search", "--sort", "name:sideways")
	assert.Error(t, err)

	_, err = run(t, "--roster", path, "search", "--born-after", "yesterday")
	assert.True(t, shared.IsValidation(err))
}

func TestSuggest(t *testing.T) {
	path := writeFile(t, "roster.yaml", rosterYAML)

	out, err := run(t, "--roster", path, "suggest", "peter", "joHn")
	require.NoError(t, err)
	assert.Equal(t, "John Peter Taylor\nPeter John Taylor\n", out)

	out, err = run(t, "--roster", path, "suggest", "pete")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRemoveRoster(t *testing.T) {
	path := writeFile(t, "roster.yaml", rosterYAML)
	removed := writeFile(t, "removed.yaml", `students:
  - {name: James Bond, born: 1981-7-16, enrolled: 2013}
  - {name: Nobody, born: 1990-1-1, enrolled: 2010}
`)

	out, err := run(t, "--roster", path, "--remove", removed, "suggest", "bond")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNoRoster(t *testing.T) {
	_, err := run(t, "search")
	assert.ErrorIs(t, err, errNoRoster)
}

func TestMissingRosterFile(t *testing.T) {
	_, err := run(t, "--roster", filepath.Join(t.TempDir(), "nope.yaml"), "search")
	assert.ErrorIs(t, err, shared.ErrRosterUnavailable)
}

func TestBreakerCheck(t *testing.T) {
	cb := circuitbreaker.New("suggestion-cache", circuitbreaker.WithThreshold(1))
	check := breakerCheck(cb)
	require.NoError(t, check(context.Background()))

	_ = cb.Execute(context.Background(), func(context.Context) error { return errors.New("dial tcp: refused") })
	assert.ErrorIs(t, check(context.Background()), circuitbreaker.ErrCircuitOpen)
}
