package analytics

import "sort"

// AdjacentCars picks the driver indices immediately ahead of and behind a
// reference car in track position, up to n each side, nearest first.
// positions maps driver index to race position (1-based, 0 = no position).
func AdjacentCars(positions []uint8, refIdx, n int) (ahead, behind []int) {
	if refIdx < 0 || refIdx >= len(positions) || n <= 0 {
		return nil, nil
	}
	refPos := positions[refIdx]
	if refPos == 0 {
		return nil, nil
	}

	type entry struct {
		idx int
		pos uint8
	}
	var ordered []entry
	for i, p := range positions {
		if p == 0 || i == refIdx {
			continue
		}
		ordered = append(ordered, entry{idx: i, pos: p})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].pos < ordered[j].pos })

	for i := len(ordered) - 1; i >= 0; i-- {
		if ordered[i].pos < refPos && len(ahead) < n {
			ahead = append(ahead, ordered[i].idx)
		}
	}
	for _, e := range ordered {
		if e.pos > refPos && len(behind) < n {
			behind = append(behind, e.idx)
		}
	}
	return ahead, behind
}
