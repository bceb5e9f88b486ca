package optimize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptimizeStripsSlashComments(t *testing.T) {
	content := "int x = 1; // counter\n/* block\ncomment */\nint y = 2;"

	out := New().Optimize(content, "java")
	assert.NotContains(t, out, "counter")
	assert.NotContains(t, out, "block")
	assert.Contains(t, out, "int x = 1;")
	assert.Contains(t, out, "int y = 2;")
}

func TestOptimizeStripsHashComments(t *testing.T) {
	content := "x = 1  # counter\ny = 2"

	out := New().Optimize(content, "python")
	assert.NotContains(t, out, "counter")
	assert.Contains(t, out, "x = 1")
	assert.Contains(t, out, "y = 2")
}

func TestOptimizeUnknownLanguageKeepsComments(t *testing.T) {
	content := "SELECT 1 -- not a slash comment // keep me"

	out := New().Optimize(content, "sql")
	assert.Contains(t, out, "keep me")
}

func TestOptimizeCollapsesWhitespace(t *testing.T) {
	out := New().Optimize("a\n\n\n   b\t\tc  ", "go")
	assert.Equal(t, "a b c", out)
}

func TestOptimizeCapsLength(t *testing.T) {
	out := New().Optimize(strings.Repeat("x", 50000), "go")
	assert.Len(t, out, 40000)
}

func TestOptimizeEmpty(t *testing.T) {
	assert.Empty(t, New().Optimize("", "go"))
}

func TestEstimateTokens(t *testing.T) {
	n := EstimateTokens("func main() { fmt.Println(\"hello world\") }")
	assert.Positive(t, n)
	assert.Less(t, n, 50)

	assert.Greater(t, EstimateTokens(strings.Repeat("analyze this code ", 100)), n)
}
