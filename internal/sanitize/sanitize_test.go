package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"plain", "晴天", 100, "晴天"},
		{"tags", "<script>alert(1)</script>晴天", 100, "alert(1)晴天"},
		{"event handler", `x onclick="evil()" y`, 100, "x  y"},
		{"javascript url", `a href="javascript:evil()"`, 100, "a "},
		{"truncates runes", "一二三四五", 3, "一二三"},
		{"no limit", "一二三四五", 0, "一二三四五"},
		{"empty", "", 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Input(tt.in, tt.max))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "abc", Truncate("abc", 5))
}
