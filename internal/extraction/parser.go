// Package extraction turns plain resume text into a best-effort structured
// profile. Every pass is a heuristic: fields are left empty when nothing
// plausible is found and parsing never fails.
package extraction

import (
	"regexp"
	"sort"
	"strings"
)

type Profile struct {
	Skills   []string `json:"skills"`
	Email    string   `json:"email,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Location string   `json:"location,omitempty"`
	Name     string   `json:"name,omitempty"`
	Batch    string   `json:"batch,omitempty"`
	Summary  string   `json:"summary,omitempty"`
}

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	// North American shape with an optional country prefix, then a looser
	// international fallback.
	phoneRe     = regexp.MustCompile(`(?:\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	phoneIntlRe = regexp.MustCompile(`\+\d{1,3}[-.\s]?\d{2,4}[-.\s]?\d{3,4}[-.\s]?\d{3,4}\b`)

	locationCueRe   = regexp.MustCompile(`\b(?i:located in|based in|location)[ \t]*:?[ \t]+([A-Z][a-zA-Z]+(?:[ \t]+[A-Z][a-zA-Z]+)?(?:,[ \t]*[A-Z][a-zA-Z]+(?:[ \t]+[A-Z][a-zA-Z]+)?)?)`)
	locationShapeRe = regexp.MustCompile(`\b([A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)?,[ \t]*(?:[A-Z]{2}\b|[A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)?))`)

	yearRe        = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	ongoingYearRe = regexp.MustCompile(`(?i)\b((?:19|20)\d{2})\s*(?:-|–|to)\s*(?:present|current)\b`)
)

const (
	maxNameLen      = 50
	maxNameWords    = 4
	nameLineWindow  = 5
	minSummaryLen   = 20
	summaryMaxLines = 3
)

// Parse runs each extraction pass independently over text.
func Parse(text string) Profile {
	lines := splitLines(text)

	return Profile{
		Skills:   ExtractSkills(text),
		Email:    emailRe.FindString(text),
		Phone:    extractPhone(text),
		Location: extractLocation(text),
		Name:     extractName(lines),
		Batch:    extractBatch(text),
		Summary:  extractSummary(lines),
	}
}

// ExtractSkills returns the sorted canonical names of every vocabulary term
// found in text as a whole word. The result is never nil.
func ExtractSkills(text string) []string {
	lower := strings.ToLower(text)
	seen := map[string]struct{}{}
	for _, p := range skillPatterns {
		if !p.re.MatchString(lower) {
			continue
		}
		seen[NormalizeSkill(p.term)] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func extractPhone(text string) string {
	if m := phoneRe.FindString(text); m != "" {
		return strings.TrimSpace(m)
	}
	return strings.TrimSpace(phoneIntlRe.FindString(text))
}

func extractName(lines []string) string {
	window := lines
	if len(window) > nameLineWindow {
		window = window[:nameLineWindow]
	}
	for _, l := range window {
		if strings.Contains(l, "@") || strings.Contains(l, "(") {
			continue
		}
		if len(l) >= maxNameLen || len(strings.Fields(l)) > maxNameWords {
			continue
		}
		return l
	}
	return ""
}

func extractLocation(text string) string {
	if m := locationCueRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := locationShapeRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractBatch prefers a year followed by "present"/"current" and otherwise
// returns the first year in the text.
func extractBatch(text string) string {
	if m := ongoingYearRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return yearRe.FindString(text)
}

func extractSummary(lines []string) string {
	picked := make([]string, 0, summaryMaxLines)
	for _, l := range lines {
		if isSummaryLine(l) {
			picked = append(picked, l)
			if len(picked) == summaryMaxLines {
				break
			}
			continue
		}
		if len(picked) > 0 {
			break
		}
	}
	return strings.Join(picked, " ")
}

func isSummaryLine(l string) bool {
	if len(l) <= minSummaryLen {
		return false
	}
	lower := strings.ToLower(l)
	if strings.Contains(l, "@") || strings.Contains(lower, "phone") {
		return false
	}
	return !phoneRe.MatchString(l)
}
