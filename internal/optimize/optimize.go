// Package optimize shrinks source content before it is sent for analysis,
// trading comments and whitespace for prompt budget.
package optimize

import (
	"regexp"
	"strings"
)

// maxContentChars caps optimized content so a single large file cannot blow
// the prompt budget.
const maxContentChars = 40000

var (
	multiLineComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	singleLineComment = regexp.MustCompile(`(?m)//.*$`)
	hashComment       = regexp.MustCompile(`(?m)#.*$`)
	extraWhitespace   = regexp.MustCompile(`\s+`)
)

// Languages with C-style comment syntax.
var slashCommentLanguages = map[string]struct{}{
	"java":       {},
	"javascript": {},
	"typescript": {},
	"c":          {},
	"cpp":        {},
	"csharp":     {},
	"go":         {},
}

// Languages with hash comments.
var hashCommentLanguages = map[string]struct{}{
	"python": {},
	"ruby":   {},
}

// Optimizer prepares file content for prompting.
type Optimizer struct{}

// New creates an Optimizer.
func New() *Optimizer {
	return &Optimizer{}
}

// Optimize strips comments for known languages, collapses whitespace, and
// caps the result. Line numbers reported against optimized content are
// approximate, which is acceptable for detection.
func (*Optimizer) Optimize(content, language string) string {
	if content == "" {
		return ""
	}

	optimized := content
	lang := strings.ToLower(language)
	if _, ok := slashCommentLanguages[lang]; ok {
		optimized = multiLineComment.ReplaceAllString(optimized, "")
		optimized = singleLineComment.ReplaceAllString(optimized, "")
	} else if _, ok := hashCommentLanguages[lang]; ok {
		optimized = hashComment.ReplaceAllString(optimized, "")
	}

	optimized = extraWhitespace.ReplaceAllString(optimized, " ")
	optimized = strings.TrimSpace(optimized)

	if len(optimized) > maxContentChars {
		optimized = optimized[:maxContentChars]
	}

	return optimized
}
