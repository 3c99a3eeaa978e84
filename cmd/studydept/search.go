package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alem-hub/study-dept/internal/application/query"
	"github.com/alem-hub/study-dept/internal/domain/student"
)

type searchFlags struct {
	name           string
	bornBefore     string
	bornAfter      string
	enrolledBefore int
	enrolledAfter  int
	sort           []string
	offset         int
	limit          int
	json           bool
}

func (c *cli) newSearchCmd() *cobra.Command {
	var f searchFlags

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Filter and sort students",
		Example: `  studydept --roster students.yaml search --name "john taylor"
  studydept --roster students.yaml search --enrolled-after 2011 --sort name --sort birth_date:desc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := f.query(cmd)
			if err != nil {
				return err
			}

			res, err := c.app.search.Handle(cmd.Context(), q)
			if err != nil {
				return err
			}

			if f.json {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			for _, s := range res.Students {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %d)\n", s.Name, s.BirthDate, s.EnrollmentYear)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "", "full name, word order and case ignored")
	flags.StringVar(&f.bornBefore, "born-before", "", "birth date strictly before Y-M-D")
	flags.StringVar(&f.bornAfter, "born-after", "", "birth date strictly after Y-M-D")
	flags.IntVar(&f.enrolledBefore, "enrolled-before", 0, "enrollment year strictly before")
	flags.IntVar(&f.enrolledAfter, "enrolled-after", 0, "enrollment year strictly after")
	flags.StringArrayVar(&f.sort, "sort", nil, "sort key[:asc|desc], repeatable; earlier keys take precedence")
	flags.IntVar(&f.offset, "offset", 0, "skip this many results")
	flags.IntVar(&f.limit, "limit", 0, "return at most this many results (0 = all)")
	flags.BoolVar(&f.json, "json", false, "print JSON")

	return cmd
}

// query builds the search query from the flags that were actually set.
func (f *searchFlags) query(cmd *cobra.Command) (query.SearchStudentsQuery, error) {
	flags := cmd.Flags()
	filter := student.NewFilter()

	if flags.Changed("name") {
		filter = filter.Name(f.name)
	}
	if flags.Changed("born-before") {
		d, err := student.ParseDate(f.bornBefore)
		if err != nil {
			return query.SearchStudentsQuery{}, fmt.Errorf("--born-before: %w", err)
		}
		filter = filter.BornBefore(d)
	}
	if flags.Changed("born-after") {
		d, err := student.ParseDate(f.bornAfter)
		if err != nil {
			return query.SearchStudentsQuery{}, fmt.Errorf("--born-after: %w", err)
		}
		filter = filter.BornAfter(d)
	}
	if flags.Changed("enrolled-before") {
		filter = filter.EnrolledBefore(f.enrolledBefore)
	}
	if flags.Changed("enrolled-after") {
		filter = filter.EnrolledAfter(f.enrolledAfter)
	}

	sort, err := student.ParseSort(f.sort)
	if err != nil {
		return query.SearchStudentsQuery{}, fmt.Errorf("--sort: %w", err)
	}

	return query.SearchStudentsQuery{
		Filter: filter,
		Sort:   sort,
		Offset: f.offset,
		Limit:  f.limit,
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
