package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(errNotFound("x")))
	assert.Equal(t, KindForbidden, KindOf(errForbidden("x")))
	assert.Equal(t, KindValidation, KindOf(errValidation("x")))
	assert.Equal(t, KindConflict, KindOf(errConflict("x")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("loading board: %w", errNotFound("board not found"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, isKind(err, KindNotFound))
	assert.False(t, isKind(err, KindForbidden))
}
