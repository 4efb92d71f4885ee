package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	next, err := Transition(Active, Inactive)
	require.NoError(t, err)
	assert.Equal(t, Inactive, next)

	next, err = Transition(Inactive, Active)
	require.NoError(t, err)
	assert.Equal(t, Active, next)
}

func TestTransitionRejectsNoop(t *testing.T) {
	_, err := Transition(Active, Active)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = Transition(Inactive, Inactive)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFromActive(t *testing.T) {
	assert.Equal(t, Active, FromActive(true))
	assert.Equal(t, Inactive, FromActive(false))
}
