package template

import (
	"fmt"
	"strings"
	"time"
)

// Variables is the closed set of substitution values for one render.
// Keys are case-sensitive and referenced in templates as {key}.
type Variables map[string]string

// Render substitutes {key} tokens with their values. Tokens without a
// matching variable are left verbatim so callers can detect them.
func Render(template string, vars Variables) string {
	if template == "" || len(vars) == 0 {
		return template
	}
	replacements := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		replacements = append(replacements, "{"+key+"}", value)
	}
	return strings.NewReplacer(replacements...).Replace(template)
}

// RenderPath substitutes tokens like Render but sanitizes each value for
// filesystem use first. The template's own separators are preserved.
func RenderPath(template string, vars Variables) string {
	if template == "" || len(vars) == 0 {
		return template
	}
	sanitized := make(Variables, len(vars))
	for key, value := range vars {
		sanitized[key] = SanitizeComponent(value)
	}
	return Render(template, sanitized)
}

// SanitizeComponent strips characters that are invalid in path components
// and converts embedded separators to hyphens.
func SanitizeComponent(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch r {
		case '<', '>', ':', '"', '|', '?', '*':
			// dropped
		case '/', '\\':
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// SeasonWord converts an AniList season enum to its lowercase word form.
func SeasonWord(season string) string {
	switch strings.ToUpper(strings.TrimSpace(season)) {
	case "WINTER":
		return "winter"
	case "SPRING":
		return "spring"
	case "SUMMER":
		return "summer"
	case "FALL":
		return "fall"
	default:
		return strings.ToLower(strings.TrimSpace(season))
	}
}

// DateVariables returns the calendar substitutions for the given time.
// Month and day are zero-padded.
func DateVariables(now time.Time) Variables {
	return Variables{
		"currentYear":  fmt.Sprintf("%d", now.Year()),
		"currentMonth": fmt.Sprintf("%02d", int(now.Month())),
		"currentDay":   fmt.Sprintf("%02d", now.Day()),
	}
}

// Merge combines variable sets; later sets win on key collisions.
func Merge(sets ...Variables) Variables {
	merged := make(Variables)
	for _, set := range sets {
		for key, value := range set {
			merged[key] = value
		}
	}
	return merged
}

// HasUnresolved reports whether a rendered string still contains a
// {token} placeholder.
func HasUnresolved(rendered string) bool {
	open := strings.IndexByte(rendered, '{')
	if open < 0 {
		return false
	}
	return strings.IndexByte(rendered[open:], '}') > 0
}
