package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorder_NilIsNoOp(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.SessionStarted()
		r.ActionPerformed()
		r.StaleReply()
		r.ProtocolError()
		r.SetStateVersion(5)
	})
}

func TestNew_RegistersWithoutPanic(t *testing.T) {
	r := New()
	assert.NotPanics(t, func() {
		r.SessionStarted()
		r.SetStateVersion(1)
	})
}

func TestServe_EmptyAddrIsNoOp(t *testing.T) {
	r := New()
	shutdown, err := r.Serve("")
	assert.NoError(t, err)
	assert.NotPanics(t, shutdown)
}
