package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

func TestArgs(t *testing.T) {
	a := Args{"1.5", " GHz ", "", "ON", "3"}

	v, err := a.Float(0, "freq")
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	assert.Equal(t, "GHz", a.String(1, "Hz"))
	assert.Equal(t, "Hz", a.String(2, "Hz"))
	assert.Equal(t, "Hz", a.String(9, "Hz"))

	on, err := a.Bool(3, "output")
	require.NoError(t, err)
	assert.True(t, on)

	n, err := a.Int(4, "ch", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = a.Int(2, "ch", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = a.Float(1, "freq")
	assert.ErrorIs(t, err, fault.ErrValidation)
	_, err = a.Float(7, "freq")
	assert.ErrorIs(t, err, fault.ErrValidation)
	_, err = a.Bool(0, "output")
	assert.ErrorIs(t, err, fault.ErrValidation)

	ints, err := Args{"101", "102"}.Ints(0, "ch")
	require.NoError(t, err)
	assert.Equal(t, []int{101, 102}, ints)
}
