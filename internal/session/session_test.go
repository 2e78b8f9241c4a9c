package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionVersion_NilSessionIsMinusOne(t *testing.T) {
	assert.Equal(t, -1, sessionVersion(nil))
}

func TestSessionVersion_ReflectsCurrentSession(t *testing.T) {
	s := &session{version: 3}
	assert.Equal(t, 3, sessionVersion(s))
}
