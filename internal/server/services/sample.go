package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/ucredit/internal/common"
	"github.com/dmitrijs2005/ucredit/internal/server/auth"
	"github.com/dmitrijs2005/ucredit/internal/server/models"
)

// SampleUserID owns the demo plan created by SampleService.
const SampleUserID = "guestUser"

type SampleService struct {
	users         *UserService
	distributions *DistributionService
	courses       *CourseService
}

func NewSampleService(users *UserService, distributions *DistributionService, courses *CourseService) *SampleService {
	return &SampleService{users: users, distributions: distributions, courses: courses}
}

type sampleCourse struct {
	title, number, term, year string
	credits                   float64
	taken                     bool
	distributions             []int
}

var sampleCourses = []sampleCourse{
	{"Expository Writing", "AS.060.100", "fall", "freshman", 3, true, []int{0}},
	{"Calculus I", "AS.110.108", "fall", "freshman", 4, true, []int{1}},
	{"Calculus II", "AS.110.109", "spring", "freshman", 4, true, []int{1}},
	{"Introduction to Ethics", "AS.150.219", "spring", "freshman", 3, false, []int{0}},
	{"Linear Algebra", "AS.110.201", "fall", "sophomore", 4, false, []int{1}},
}

// Seed creates the sample user with two distributions and a handful of
// courses, going through the coordinator like any client would. A second
// call returns the existing sample user and creates nothing.
func (s *SampleService) Seed(ctx context.Context) (*models.User, []*common.PropagationError, error) {
	if u, err := s.users.GetUser(ctx, SampleUserID); err == nil {
		return u, nil, nil
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, nil, err
	}

	if _, err := s.users.Login(ctx, &auth.UserClaims{
		UserID:      SampleUserID,
		Name:        "Guest User",
		Email:       "guest@ucredit.me",
		Affiliation: "STUDENT",
		School:      "Whiting School of Engineering",
		Grade:       "AE UG Freshman",
	}); err != nil {
		return nil, nil, err
	}

	var distIDs []string
	for _, d := range []CreateDistributionInput{
		{UserID: SampleUserID, Name: "Humanities", Required: 6},
		{UserID: SampleUserID, Name: "Mathematics", Required: 12},
	} {
		created, err := s.distributions.Create(ctx, d)
		if err != nil {
			return nil, nil, err
		}
		distIDs = append(distIDs, created.ID)
	}

	var warnings []*common.PropagationError
	for _, c := range sampleCourses {
		in := AddCourseInput{
			UserID:  SampleUserID,
			Title:   c.title,
			Number:  c.number,
			Term:    c.term,
			Year:    c.year,
			Credits: c.credits,
			Taken:   c.taken,
		}
		for _, i := range c.distributions {
			in.DistributionIDs = append(in.DistributionIDs, distIDs[i])
		}

		res, err := s.courses.AddCourse(ctx, in)
		if err != nil {
			return nil, warnings, err
		}
		warnings = append(warnings, res.Warnings...)
	}

	u, err := s.users.GetUser(ctx, SampleUserID)
	return u, warnings, err
}
