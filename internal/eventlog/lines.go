package eventlog

import (
	"strings"

	"aat-go/internal/models"
)

// DefaultMinFields is the fewest comma separated segments a payload line may
// have. Anything shorter is a truncated write.
const DefaultMinFields = 3

// LocateHeader returns the index of the first line holding the payload
// marker. Everything before it is preamble. The marker line is the header:
// its width counts toward the table, its values are never a sample.
func LocateHeader(lines []string) (int, error) {
	for i, line := range lines {
		if strings.Contains(line, models.EventPlayerPosition) {
			return i, nil
		}
	}
	return -1, newError(KindHeaderNotFound, "locate header",
		"no line contains %q in %d lines: %w", models.EventPlayerPosition, len(lines), ErrHeaderNotFound)
}

// FilterLines keeps the lines with at least minFields segments and reports how
// many were dropped.
func FilterLines(lines []string, minFields int) ([]string, int, error) {
	if minFields < 1 {
		minFields = DefaultMinFields
	}
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.Count(line, ",")+1 >= minFields {
			kept = append(kept, line)
		}
	}
	dropped := len(lines) - len(kept)
	if len(kept) == 0 {
		return nil, dropped, newError(KindNoValidData, "filter lines",
			"all %d lines have fewer than %d fields: %w", len(lines), minFields, ErrNoValidData)
	}
	return kept, dropped, nil
}
