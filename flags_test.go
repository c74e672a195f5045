package main

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/astralkn/termprogress/progress"
)

func TestTargetValue_SetAndString(t *testing.T) {
	value := new(targetValue)
	assert.Equal(t, value.String(), "auto")

	for _, name := range []string{"term", "stream", "hidden", "auto"} {
		assert.NilError(t, value.Set(name))
		assert.Equal(t, value.String(), name)
	}
	assert.ErrorContains(t, value.Set("tty"), "invalid value: tty, must be one of: auto, term, stream, hidden")
	assert.Equal(t, value.String(), "auto")
}

func TestFinishPolicyValue_SetAndString(t *testing.T) {
	value := &finishPolicyValue{value: progress.FinishLeave}
	assert.Equal(t, value.String(), "leave")

	assert.NilError(t, value.Set("erase"))
	assert.Equal(t, value.value, progress.FinishErase)
	assert.Equal(t, value.String(), "erase")

	assert.ErrorContains(t, value.Set("keep"), "must be one of: leave, erase")
}

func TestAlignmentValue_SetAndString(t *testing.T) {
	value := &alignmentValue{value: progress.AlignTop}
	assert.Equal(t, value.String(), "top")

	assert.NilError(t, value.Set("bottom"))
	assert.Equal(t, value.value, progress.AlignBottom)
	assert.Equal(t, value.String(), "bottom")

	assert.ErrorContains(t, value.Set("middle"), "must be one of: top, bottom")
}
