package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "B_FG", "B_FG"},
		{"lowercase hyphen padded", "  b-fg ", "B_FG"},
		{"spaces", "B FG", "B_FG"},
		{"nbsp and tabs", " b\tfg ", "B_FG"},
		{"run of separators", "b - -  fg", "B_FG"},
		{"repeated underscores", "B__FG", "B_FG"},
		{"empty", "", ""},
		{"whitespace only", "     ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LineCode(tt.in))
		})
	}
}

func TestLineCodeIdempotent(t *testing.T) {
	inputs := []string{"  b-fg ", "B FG", "h_fg", "CD / CTE", "", "x--y  z"}
	for _, in := range inputs {
		once := LineCode(in)
		assert.Equal(t, once, LineCode(once), "normalize(normalize(%q))", in)
	}
}

func TestDescriptor(t *testing.T) {
	// Separator spacing must not affect equality.
	assert.Equal(t, Descriptor("CD / CTE"), Descriptor("CD/CTE"))
	assert.Equal(t, Descriptor("A&B"), Descriptor("a & b"))
	assert.Equal(t, Descriptor("X-Y"), Descriptor("x - y"))
	assert.Equal(t, "CD / CTE", Descriptor("cd/cte"))
}

func TestDescriptorIdempotent(t *testing.T) {
	for _, in := range []string{"CD/CTE", "a & b", "plain text"} {
		once := Descriptor(in)
		assert.Equal(t, once, Descriptor(once))
	}
}
