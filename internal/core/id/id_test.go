package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TimeOrdered(t *testing.T) {
	a, b := New(), New()
	assert.Equal(t, 7, int(a.Version()))
	assert.LessOrEqual(t, a.String()[:8], b.String()[:8])
	assert.False(t, IsNil(a))
}

func TestParseAll(t *testing.T) {
	a, b := New(), New()

	ids, err := ParseAll([]string{a.String(), b.String()})
	require.NoError(t, err)
	assert.Equal(t, []ID{a, b}, ids)

	_, err = ParseAll([]string{a.String(), "nope"})
	assert.ErrorContains(t, err, `"nope"`)
}
