package assert

import (
	"testing"

	testify "github.com/stretchr/testify/assert"
)

func TestAssert(t *testing.T) {
	testify.NotPanics(t, func() { Assert(true, "unused") })
	testify.PanicsWithValue(t, "reserves must be positive", func() { Assert(false, "reserves must be positive") })
	testify.PanicsWithValue(t, "assertion failed", func() { Assert(false) })
}
