package decompose

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/taskpilot/taskpilot/internal/models"
)

const (
	// maxSanitizedLen bounds any single sanitized field.
	maxSanitizedLen = 1000
	// maxInputLen bounds raw input accepted for validation.
	maxInputLen = 5000
)

var (
	newlineRe = regexp.MustCompile(`[\r\n\x{2028}\x{2029}]+`)

	// role and instruction markers that could redirect the model
	roleKeywordRe = regexp.MustCompile(
		`(?i)\b(system|user|assistant|prompt|instructions?|ignore)\b`,
	)

	controlRe = regexp.MustCompile(`[\x{0000}-\x{0008}\x{000B}\x{000C}\x{000E}-\x{001F}\x{007F}-\x{009F}]`)
)

// injectionPatternSrcs are rejected outright rather than sanitized.
var injectionPatternSrcs = []string{
	`(?i)ignore\s+(all\s+|any\s+)?previous\s+instructions`,
	`(?i)disregard\s+(all\s+|any\s+)?(previous|prior)\s+instructions`,
	`(?i)you\s+are\s+now`,
	`(?i)system\s+prompt\s*:`,
	`(?i)forget\s+everything`,
	`<\|[^|]*\|>`,
}

var injectionPatterns []*regexp.Regexp

func init() {
	// A pattern that fails to compile is skipped rather than taking the
	// validator down: validation fails open on internal error and closed on
	// a match.
	for _, src := range injectionPatternSrcs {
		re, err := regexp.Compile(src)
		if err != nil {
			slog.Error("skipping invalid injection pattern",
				slog.String("pattern", src),
				slog.Any("error", err),
			)

			continue
		}

		injectionPatterns = append(injectionPatterns, re)
	}
}

// Sanitize neutralizes a user-supplied string for safe embedding in a model
// prompt. Newlines collapse to spaces, role keywords are wrapped as
// [filtered:...], backslashes are escaped, control characters are stripped,
// and the result is truncated.
func Sanitize(s string) string {
	s = newlineRe.ReplaceAllString(s, " ")

	s = roleKeywordRe.ReplaceAllStringFunc(s, func(m string) string {
		return "[filtered:" + m + "]"
	})

	s = strings.ReplaceAll(s, `\`, `\\`)

	s = controlRe.ReplaceAllString(s, "")

	runes := []rune(s)
	if len(runes) > maxSanitizedLen {
		s = string(runes[:maxSanitizedLen])
	}

	return s
}

// SanitizeDetails returns a copy of the project details with every string
// field sanitized. Non-string fields pass through unchanged.
func SanitizeDetails(d models.ProjectDetails) models.ProjectDetails {
	d.Name = Sanitize(d.Name)
	d.Description = Sanitize(d.Description)

	return d
}

// ValidateInput rejects input containing known injection phrases or
// exceeding the raw size limit. A nil return means the input may proceed to
// sanitization.
func ValidateInput(s string) error {
	if len(s) > maxInputLen {
		return ErrUnsafeInput
	}

	for _, re := range injectionPatterns {
		if re.MatchString(s) {
			return ErrUnsafeInput
		}
	}

	return nil
}
