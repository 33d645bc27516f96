package timeline

import (
	"fmt"
	"math"
)

// LayoutBlocks lays the blocks named by order back to back. Offsets depend
// on order alone: offset[i] is the sum of the durations before position i.
// It returns the placements and the channel total.
func LayoutBlocks(order []string, durations map[string]float64) ([]Placement, float64, error) {
	out := make([]Placement, 0, len(order))
	seen := make(map[string]struct{}, len(order))
	var running float64

	for i, id := range order {
		d, ok := durations[id]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrInvalidReference, id)
		}
		if _, dup := seen[id]; dup {
			return nil, 0, fmt.Errorf("%w: %s", ErrDuplicateBlock, id)
		}
		if !validDuration(d) {
			return nil, 0, fmt.Errorf("%w: block %s has %v", ErrInvalidDuration, id, d)
		}
		seen[id] = struct{}{}

		out = append(out, Placement{
			BlockID:  id,
			Position: i,
			Offset:   running,
			Duration: d,
		})
		running += d
	}
	return out, running, nil
}

// TotalDuration sums the durations of the set ids. Listing a block twice
// is ErrDuplicateBlock, as in LayoutBlocks.
func TotalDuration(ids []string, durations map[string]float64) (float64, error) {
	if id, dup := duplicateID(ids); dup {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateBlock, id)
	}
	var total float64
	for _, id := range ids {
		d, ok := durations[id]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrInvalidReference, id)
		}
		total += d
	}
	return total, nil
}

func duplicateID(ids []string) (string, bool) {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id, true
		}
		seen[id] = struct{}{}
	}
	return "", false
}

func validDuration(d float64) bool {
	return d >= 0 && !math.IsInf(d, 0) && !math.IsNaN(d)
}

// FormatClock renders seconds as HH:MM:SS, dropping fractions.
func FormatClock(seconds float64) string {
	if !validDuration(seconds) {
		seconds = 0
	}
	s := int64(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}
