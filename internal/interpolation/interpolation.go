package interpolation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Mapping stores the original placeholder and its safe replacement.
type Mapping struct {
	Original    string
	Placeholder string
	Index       int
}

// varMatch stores a detected interpolation variable position.
type varMatch struct {
	start, end int
	value      string
}

// patterns detect placeholders found in localisation strings. Earlier
// patterns win when matches start at the same offset and have equal length.
var patterns = []*regexp.Regexp{
	// {{name}}
	regexp.MustCompile(`\{\{\s*[a-zA-Z_][a-zA-Z0-9_.]*\s*\}\}`),
	// ${value}
	regexp.MustCompile(`\$\{[a-zA-Z_][a-zA-Z0-9_.]*\}`),
	// {0}, {1}
	regexp.MustCompile(`\{[0-9]+\}`),
	// {name}
	regexp.MustCompile(`\{[a-zA-Z_][a-zA-Z0-9_]*\}`),
	// %1$s, %2$d
	regexp.MustCompile(`%[0-9]+\$[-+0]*[0-9]*(?:\.[0-9]+)?[dsfieEgGxXoubc@]`),
	// %d, %s, %.2f, %ld
	regexp.MustCompile(`%[-+0]*[0-9]*(?:\.[0-9]+)?(?:l|ll|h|z)?[dsfieEgGxXoubc@]`),
	// escaped percent literal
	regexp.MustCompile(`%%`),
}

// Protect replaces all interpolation variables with safe ⟦N⟧ tokens.
// Returns the safe string and a mapping to restore originals after translation.
func Protect(text string) (string, []Mapping) {
	var allMatches []varMatch
	for _, p := range patterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			allMatches = append(allMatches, varMatch{
				start: loc[0],
				end:   loc[1],
				value: text[loc[0]:loc[1]],
			})
		}
	}

	if len(allMatches) == 0 {
		return text, nil
	}

	// By position, longest first on ties.
	sort.SliceStable(allMatches, func(i, j int) bool {
		if allMatches[i].start != allMatches[j].start {
			return allMatches[i].start < allMatches[j].start
		}
		return allMatches[i].end-allMatches[i].start > allMatches[j].end-allMatches[j].start
	})

	var filtered []varMatch
	lastEnd := -1
	for _, m := range allMatches {
		if m.start >= lastEnd {
			filtered = append(filtered, m)
			lastEnd = m.end
		}
	}

	var b strings.Builder
	mappings := make([]Mapping, 0, len(filtered))
	prev := 0
	for i, m := range filtered {
		placeholder := token(i + 1)
		b.WriteString(text[prev:m.start])
		b.WriteString(placeholder)
		prev = m.end
		mappings = append(mappings, Mapping{
			Original:    m.value,
			Placeholder: placeholder,
			Index:       i + 1,
		})
	}
	b.WriteString(text[prev:])

	return b.String(), mappings
}

// Restore puts the original variables back. A token the translation dropped
// is appended to the end so no variable is lost.
func Restore(translated string, mappings []Mapping) string {
	result := translated
	var missing []string
	for _, m := range mappings {
		if strings.Contains(result, m.Placeholder) {
			result = strings.Replace(result, m.Placeholder, m.Original, 1)
			continue
		}
		missing = append(missing, m.Original)
	}
	if len(missing) > 0 {
		result = strings.TrimRight(result, " ") + " " + strings.Join(missing, " ")
	}
	return result
}

// Placeholders lists the variables found in text, in order.
func Placeholders(text string) []string {
	_, mappings := Protect(text)
	out := make([]string, len(mappings))
	for i, m := range mappings {
		out[i] = m.Original
	}
	return out
}

func token(i int) string {
	return fmt.Sprintf("⟦%d⟧", i)
}
