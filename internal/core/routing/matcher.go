// Package routing resolves which lines serve a trip and the stops a rider travels.
// Everything here is computation over values passed in by the caller.
package routing

import (
	"strings"

	"github.com/busfinder/busfinder/internal/core/domain"
)

// ValidatePair rejects blank or identical origin/destination stop ids.
func ValidatePair(originStopID, destinationStopID string) error {
	if strings.TrimSpace(originStopID) == "" || strings.TrimSpace(destinationStopID) == "" {
		return domain.NewUsageError("origin and destination stop ids are required")
	}
	if originStopID == destinationStopID {
		return domain.NewUsageError("origin and destination must be different stops")
	}
	return nil
}

// Serves reports the first-occurrence indices of origin and destination on line,
// and whether the destination comes strictly after the origin.
func Serves(line *domain.Line, originStopID, destinationStopID string) (originIdx, destinationIdx int, ok bool) {
	originIdx = line.IndexOf(originStopID)
	destinationIdx = line.IndexOf(destinationStopID)
	ok = originIdx >= 0 && destinationIdx >= 0 && destinationIdx > originIdx
	return originIdx, destinationIdx, ok
}

// FindServingLines returns the lines that travel from origin to destination in
// their stored direction. Input order is preserved; no match yields an empty slice.
func FindServingLines(lines []domain.Line, originStopID, destinationStopID string) ([]domain.Line, error) {
	if err := ValidatePair(originStopID, destinationStopID); err != nil {
		return nil, err
	}

	matched := make([]domain.Line, 0)
	for i := range lines {
		if _, _, ok := Serves(&lines[i], originStopID, destinationStopID); ok {
			matched = append(matched, lines[i])
		}
	}
	return matched, nil
}
