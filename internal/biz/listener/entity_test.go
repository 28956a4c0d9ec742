package listener

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefinitionParams(t *testing.T) {
	d := &Definition{Param1: "a", Param2: "b", Param3: "", Param4: "d"}
	assert.Equal(t, []string{"a", "b"}, d.Params())

	d.SetParams([]string{"x", "y", "z", "w", "overflow"})
	assert.Equal(t, []string{"x", "y", "z", "w"}, d.Params())

	d.SetParams(nil)
	assert.Nil(t, d.Params())
	assert.Empty(t, d.Param4)
}
