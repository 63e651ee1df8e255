package corners

// localMinima finds indices of speed minima with at least the given
// prominence (depth relative to the surrounding trace) and spacing in
// samples. When two candidates sit closer than the spacing, the deeper
// one wins. Results come back in ascending index order.
func localMinima(y []float64, minSpacing int, minProminence float64) []int {
	candidates := minimaCandidates(y)
	if len(candidates) == 0 {
		return nil
	}

	kept := enforceSpacing(y, candidates, minSpacing)

	var out []int
	for _, i := range kept {
		if minimumProminence(y, i) >= minProminence {
			out = append(out, i)
		}
	}
	return out
}

// minimaCandidates returns every strict local minimum; flat valleys
// yield their middle sample.
func minimaCandidates(y []float64) []int {
	var out []int
	n := len(y)
	i := 1
	for i < n-1 {
		if y[i] >= y[i-1] {
			i++
			continue
		}
		// Descending into a valley; skip across any flat floor.
		j := i
		for j < n-1 && y[j+1] == y[j] {
			j++
		}
		if j < n-1 && y[j+1] > y[j] {
			out = append(out, (i+j)/2)
		}
		i = j + 1
	}
	return out
}

// enforceSpacing keeps the deepest minima first and drops any candidate
// within minSpacing samples of one already kept.
func enforceSpacing(y []float64, candidates []int, minSpacing int) []int {
	if minSpacing <= 1 || len(candidates) < 2 {
		return candidates
	}

	order := make([]int, len(candidates))
	copy(order, candidates)
	// Sort by depth, shallowest last, via simple insertion (candidate
	// lists are tiny).
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && y[order[j]] < y[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	removed := make(map[int]bool)
	for _, i := range order {
		if removed[i] {
			continue
		}
		for _, k := range candidates {
			if k != i && !removed[k] && abs(k-i) < minSpacing {
				removed[k] = true
			}
		}
	}

	var out []int
	for _, k := range candidates {
		if !removed[k] {
			out = append(out, k)
		}
	}
	return out
}

// minimumProminence measures how far y[i] sits below the lower of the
// two enclosing maxima: scan outward in each direction until a deeper
// minimum (or the trace edge), track the highest value seen, and take
// the smaller of the two bases.
func minimumProminence(y []float64, i int) float64 {
	leftBase := y[i]
	for j := i - 1; j >= 0; j-- {
		if y[j] < y[i] {
			break
		}
		if y[j] > leftBase {
			leftBase = y[j]
		}
	}
	rightBase := y[i]
	for j := i + 1; j < len(y); j++ {
		if y[j] < y[i] {
			break
		}
		if y[j] > rightBase {
			rightBase = y[j]
		}
	}
	base := leftBase
	if rightBase < base {
		base = rightBase
	}
	return base - y[i]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
