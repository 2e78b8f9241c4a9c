package browsercontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quickstrom/quickstrom-go/internal/jsonvalue"
	"github.com/quickstrom/quickstrom-go/internal/wire"
)

func TestFirstStringArg(t *testing.T) {
	assert.Equal(t, "", firstStringArg(nil))
	assert.Equal(t, "", firstStringArg([]jsonvalue.Value{jsonvalue.Number(1)}))
	assert.Equal(t, "E1", firstStringArg([]jsonvalue.Value{jsonvalue.String("E1")}))
}

func TestPerform_UnknownActionIsUnsupported(t *testing.T) {
	s := &Session{}
	err := s.Perform(wire.Action{ID: "dragAndDrop"})
	assert.Error(t, err)
}
