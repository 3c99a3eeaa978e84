// Package roster reads student rosters from YAML files.
//
// Format:
//
//	students:
//	  - name: John Taylor
//	    born: 1981-6-30
//	    enrolled: 2012
package roster

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alem-hub/study-dept/internal/domain/shared"
	"github.com/alem-hub/study-dept/internal/domain/student"
)

type file struct {
	Students []entry `yaml:"students"`
}

type entry struct {
	Name     string `yaml:"name"`
	Born     string `yaml:"born"`
	Enrolled *int   `yaml:"enrolled"`
}

// LoadFile reads the roster at path.
func LoadFile(path string) ([]student.Student, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w: %w", path, shared.ErrRosterUnavailable, err)
	}
	defer f.Close()

	students, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", path, err)
	}
	return students, nil
}

// Parse decodes a roster document. Unknown keys are rejected. Entries keep
// document order; duplicates are passed through for the directory to reject.
func Parse(r io.Reader) ([]student.Student, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc file
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []student.Student{}, nil
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrRosterMalformed, err)
	}

	students := make([]student.Student, 0, len(doc.Students))
	for i, e := range doc.Students {
		s, err := e.student()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", shared.ErrRosterMalformed, i+1, err)
		}
		students = append(students, s)
	}
	return students, nil
}

func (e entry) student() (student.Student, error) {
	if strings.TrimSpace(e.Name) == "" {
		return student.Student{}, errors.New("name is required")
	}
	if e.Enrolled == nil {
		return student.Student{}, errors.New("enrolled is required")
	}
	born, err := student.ParseDate(e.Born)
	if err != nil {
		return student.Student{}, err
	}
	return student.NewStudent(e.Name, born, *e.Enrolled), nil
}
