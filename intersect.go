package depot

import "slices"

// intersect returns the entities present in every set, ascending. Each set must be sorted
// ascending without duplicates. Sets are folded smallest first, so the cost is bounded by
// the rarest type rather than the most common one. The result never aliases an input.
func intersect(sets [][]Entity) []Entity {
	if len(sets) == 0 {
		return []Entity{}
	}
	for _, set := range sets {
		if len(set) == 0 {
			return []Entity{}
		}
	}

	ordered := slices.Clone(sets)
	slices.SortStableFunc(ordered, func(a, b []Entity) int {
		return len(a) - len(b)
	})

	result := slices.Clone(ordered[0])
	for _, set := range ordered[1:] {
		result = mergeSorted(result, set)
		if len(result) == 0 {
			break
		}
	}
	return result
}

// mergeSorted intersects two ascending sequences in linear time, writing into acc's
// backing array.
func mergeSorted(acc, set []Entity) []Entity {
	out := acc[:0]
	i, j := 0, 0
	for i < len(acc) && j < len(set) {
		switch {
		case acc[i] < set[j]:
			i++
		case acc[i] > set[j]:
			j++
		default:
			out = append(out, acc[i])
			i++
			j++
		}
	}
	return out
}
