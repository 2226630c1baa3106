package parallel

// BuildLevels assigns each instruction to an execution level such that
// all instructions within a level are guaranteed non-conflicting.
// The returned slice is ordered by level; each element is a slice of
// instruction indices in ascending order.
//
// Levels are contiguous runs of the input, so flattening them preserves the
// submission order: an instruction opens a new level as soon as it conflicts
// with anything already placed in the current one.
func BuildLevels(accessSets []AccessSet) [][]int {
	if len(accessSets) == 0 {
		return nil
	}
	var (
		levels  [][]int
		current []int
		union   = NewAccessSet()
	)
	for i := range accessSets {
		if len(current) > 0 && union.Conflicts(&accessSets[i]) {
			levels = append(levels, current)
			current, union = nil, NewAccessSet()
		}
		current = append(current, i)
		union.Merge(&accessSets[i])
	}
	return append(levels, current)
}
