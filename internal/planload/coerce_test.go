package planload

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adientlz/pvs-reporter/internal/series"
)

func TestCoerceDateFormats(t *testing.T) {
	want := series.Date(2024, time.June, 3)

	for _, in := range []string{
		"03/06/2024",
		"3/6/24",
		"2024-06-03",
		"2024-06-03 00:00:00",
		"2024-06-03T00:00:00",
		"3.6.2024",
		"03-06-2024",
	} {
		got, ok := CoerceDate(in)
		require.True(t, ok, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}
}

func TestCoerceDateSerial(t *testing.T) {
	want := series.Date(2024, time.June, 3)
	serial := int(want.Sub(serialBase).Hours() / 24)
	require.Greater(t, serial, serialMin)
	require.Less(t, serial, serialMax)

	got, ok := CoerceDate(fmt.Sprint(serial))
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCoerceDateRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"   ",
		"B_FG",
		"Target (LTP input)",
		"123",        // number below the plausible serial range
		"99999",      // number above the plausible serial range
		"31/02/2024", // impossible calendar date
		"1/2",
		"13/13/2024",
	} {
		_, ok := CoerceDate(in)
		assert.False(t, ok, "input %q", in)
	}
}

func TestCoerceQty(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"  ", 0},
		{"12", 12},
		{"12.4", 12},
		{"12.6", 13},
		{"-3.5", -4},
		{"1,200", 1200},
		{"garbage", 0},
		{"NaN", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CoerceQty(tt.in), "input %q", tt.in)
	}
}
