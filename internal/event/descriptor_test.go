package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogue(t *testing.T) {
	c, k := NewBuiltinCatalogue()

	d, ok := c.Lookup(NameSchedulerFired)
	assert.True(t, ok)
	assert.Same(t, k.SchedulerFired, d)
	assert.Equal(t, TypeOf[SchedulerFired](), d.PayloadType())

	_, ok = c.Lookup("missing")
	assert.False(t, ok)

	all := c.All()
	assert.Len(t, all, 5)
	assert.Equal(t, NameFormSubmitted, all[0].Name())

	assert.Panics(t, func() { Define[int](c, NameSchedulerFired) })

	custom := Define[int](c, "custom.kind")
	assert.Equal(t, "custom.kind", custom.Name())

	c.Seal()
	assert.Panics(t, func() { Define[int](c, "late.kind") })
}
