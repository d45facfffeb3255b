package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NewNotFound(KindCourse, "c1"))

	assert.ErrorIs(t, err, ErrorNotFound)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, KindCourse, nf.Kind)
	assert.Equal(t, "c1", nf.ID)
	assert.Contains(t, err.Error(), `course "c1" not found`)
}

func TestInvalidReferenceError_ListsIDs(t *testing.T) {
	err := &InvalidReferenceError{UserID: "jdoe1", IDs: []string{"d9", "d10"}}

	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.Contains(t, err.Error(), "d9, d10")
	assert.Contains(t, err.Error(), "jdoe1")
}

func TestPropagationError_UnwrapsBoth(t *testing.T) {
	cause := errors.New("db down")
	err := &PropagationError{Step: "distribution.link", CourseID: "c1", TargetID: "d1", Err: cause}

	assert.ErrorIs(t, err, ErrPropagation)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "distribution.link for course c1 on d1: db down", err.Error())
}

func TestInvalidArgument(t *testing.T) {
	err := InvalidArgument("taken must be a boolean")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "invalid argument: taken must be a boolean", err.Error())
}
