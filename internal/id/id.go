package id

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatEntryCode returns a journal entry code like "JE-2025-000042".
// Sequence numbers restart at 1 each calendar year.
func FormatEntryCode(year, seq int) string {
	return fmt.Sprintf("JE-%04d-%06d", year, seq)
}

// ParseEntryCode parses "JE-2025-000042" into year and sequence.
func ParseEntryCode(code string) (year, seq int, err error) {
	parts := strings.SplitN(code, "-", 3)
	if len(parts) != 3 || parts[0] != "JE" {
		return 0, 0, fmt.Errorf("invalid entry code format: %q", code)
	}

	year, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year in entry code %q: %w", code, err)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid sequence in entry code %q: %w", code, err)
	}

	return year, seq, nil
}
