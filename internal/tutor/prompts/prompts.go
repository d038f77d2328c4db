package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

// FS holds the built-in tutor prompt templates.
//
//go:embed templates/*.txt
var FS embed.FS

const (
	maxContentRunes  = 12000
	maxQuestionRunes = 4000
)

var (
	lessonContentRegex      = regexp.MustCompile(`(?i)</?\s*lesson-content\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

// Variant is a tutor prompt variant.
type Variant string

const (
	// VariantConcise answers in a few sentences.
	VariantConcise Variant = "concise"
	// VariantStandard is the default explanatory tutor.
	VariantStandard Variant = "standard"
	// VariantSocratic guides with questions instead of answers.
	VariantSocratic Variant = "socratic"
)

var validVariants = map[Variant]bool{
	VariantConcise:  true,
	VariantStandard: true,
	VariantSocratic: true,
}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[Variant]*template.Template
)

// IsValidVariant checks if a variant name is valid.
func IsValidVariant(v string) bool {
	return validVariants[Variant(v)]
}

// Lesson holds template data for the system prompt.
type Lesson struct {
	Course  string
	Lesson  string
	Content string
	Lang    string
}

// Load parses the templates from fsys once. Later calls return the first result.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		templates = make(map[Variant]*template.Template)
		for _, v := range []Variant{VariantConcise, VariantStandard, VariantSocratic} {
			name := "templates/" + string(v) + ".txt"
			content, err := fs.ReadFile(fsys, name)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", name, err)
				return
			}
			tmpl, err := template.New(string(v)).Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", name, err)
				return
			}
			templates[v] = tmpl
		}
	})
	return loadErr
}

// BuildSystemPrompt renders the system prompt of variant for lesson.
func BuildSystemPrompt(variant Variant, lesson Lesson) (string, error) {
	if templates == nil {
		return "", errors.New("templates not initialized: call Load first")
	}
	tmpl, ok := templates[variant]
	if !ok {
		if loadErr != nil {
			return "", fmt.Errorf("templates load failed: %w", loadErr)
		}
		return "", errors.New("invalid prompt variant: " + string(variant))
	}

	lesson.Content = stripTags(lesson.Content)
	lesson.Content = truncate(lesson.Content, maxContentRunes, "\n\n[Lesson truncated]")

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, lesson); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SanitizeQuestion strips prompt delimiters from learner input and caps its length.
func SanitizeQuestion(q string) string {
	q = strings.TrimSpace(stripTags(q))
	if q == "" {
		return "[No question provided]"
	}
	return truncate(q, maxQuestionRunes, "\n\n[Question truncated due to length]")
}

func stripTags(s string) string {
	s = lessonContentRegex.ReplaceAllString(s, "")
	return systemInstructionsRegex.ReplaceAllString(s, "")
}

func truncate(s string, n int, marker string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + marker
}
