package runner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFaults(t *testing.T) {
	f := &Faults{}
	assert.False(t, f.HasAny())
	assert.Empty(t, f.All())

	f.Record(nil)
	assert.False(t, f.HasAny(), "nil errors are not faults")

	first := errors.New("first")
	second := errors.New("second")
	f.Record(first)
	f.Record(second)

	assert.True(t, f.HasAny())
	assert.Equal(t, []error{first, second}, f.All())
}
