package viewer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColorTable_Retire_DropsColorOnlyWhenAllPixelsSaturated(t *testing.T) {
	// color 1 has two pixels, color 2 has one.
	ct := NewColorTable([]int{1, 1, 2}, []int{10, 10, 20})

	retired := ct.Retire([]int8{1, 0, 0})
	require.Empty(t, retired, "one of color 1's two pixels saturating must not retire it yet")
	require.Equal(t, []int{0, 1, 2}, ct.Color())

	retired = ct.Retire([]int8{1, 1, 0})
	require.Equal(t, []int{1}, retired, "color 1's last pixel saturating must retire it")
	require.Equal(t, []int{0, 0, 2}, ct.Color())
	require.Equal(t, []int{0, 0, 20}, ct.Finecolor())
}

func TestColorTable_Retire_IdempotentUnderReapplication(t *testing.T) {
	ct := NewColorTable([]int{1, 2}, []int{1, 2})
	sat := []int8{1, 0}

	first := ct.Retire(sat)
	require.Equal(t, []int{1}, first)

	second := ct.Retire(sat)
	require.Empty(t, second, "re-applying the same saturation vector must be a no-op")
}

func TestColorTable_Retire_NoSaturatedPixels_ReturnsNil(t *testing.T) {
	ct := NewColorTable([]int{1, 2}, []int{1, 2})
	require.Nil(t, ct.Retire([]int8{0, 0}))
}
