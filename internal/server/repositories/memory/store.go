// Package memory keeps users, distributions and courses in process memory.
// It backs the server when no database DSN is configured and the service
// tests.
//
// All three repositories share one Store and one mutex, so every method
// call is atomic with respect to the others. Returned values are copies.
package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/ucredit/internal/server/models"
)

type userRecord struct {
	user  models.User
	years map[string][]string
}

type Store struct {
	mu sync.Mutex

	users map[string]*userRecord

	distributions     map[string]*models.Distribution
	distributionOrder []string

	courses     map[string]*models.Course
	courseOrder []string

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]*userRecord),
		distributions: make(map[string]*models.Distribution),
		courses:       make(map[string]*models.Course),
		now:           time.Now,
	}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

func (s *Store) Distributions() *DistributionRepository {
	return &DistributionRepository{s: s}
}

func (s *Store) Courses() *CourseRepository {
	return &CourseRepository{s: s}
}

func cloneDistribution(d *models.Distribution) *models.Distribution {
	cp := *d
	cp.Courses = slices.Clone(d.Courses)
	if cp.Courses == nil {
		cp.Courses = []string{}
	}
	return &cp
}

func cloneCourse(c *models.Course) *models.Course {
	cp := c.Clone()
	if cp.DistributionIDs == nil {
		cp.DistributionIDs = []string{}
	}
	return cp
}

// push appends v to list unless present.
func push(list []string, v string) ([]string, bool) {
	if slices.Contains(list, v) {
		return list, false
	}
	return append(list, v), true
}

// pull removes every occurrence of v from list.
func pull(list []string, v string) ([]string, bool) {
	out := slices.DeleteFunc(list, func(s string) bool { return s == v })
	return out, len(out) != len(list)
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out, _ = push(out, id)
	}
	return out
}
