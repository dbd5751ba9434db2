package ans

import "golang.org/x/exp/slices"

// Normalize scales raw to sum to TableSize, capping the alphabet at
// DefaultAlphabetCap. It is a convenience wrapper around NormalizeHistogram
// for callers working with the core coder's alphabet, as opposed to a
// container payload's wider 512-symbol frequency table.
func Normalize(raw []int) ([]int, error) {
	return NormalizeHistogram(raw, DefaultAlphabetCap, TableSize)
}

// NormalizeHistogram scales raw, a non-negative integer frequency table, so
// that the result sums to exactly tableSize. A symbol with raw frequency
// zero stays at zero; every symbol with a nonzero raw frequency is
// guaranteed at least one slot in the normalized table, so no observed
// symbol becomes unencodable. len(raw) must not exceed maxAlphabet.
func NormalizeHistogram(raw []int, maxAlphabet, tableSize int) ([]int, error) {
	if len(raw) > maxAlphabet {
		return nil, ErrAlphabetTooLarge
	}

	total := 0

	for _, f := range raw {
		total += f
	}

	if total == 0 {
		return nil, ErrEmptyHistogram
	}

	norm := make([]int, len(raw))
	sum := 0
	idxMax := 0
	present := 0

	for i, f := range raw {
		if f == 0 {
			continue
		}

		present++
		sf := int64(f) * int64(tableSize)
		var nf int

		if sf <= int64(total) {
			nf = 1
		} else {
			nf = int(sf / int64(total))
			errCeiling := int64(nf+1)*int64(total) - sf
			errFloor := sf - int64(nf)*int64(total)

			if errCeiling < errFloor {
				nf++
			}
		}

		norm[i] = nf
		sum += nf

		if norm[i] > norm[idxMax] {
			idxMax = i
		}
	}

	if present == 1 {
		norm[idxMax] = tableSize
		return norm, nil
	}

	if sum == tableSize {
		return norm, nil
	}

	delta := sum - tableSize
	errThr := norm[idxMax] >> 4
	var inc, absDelta int

	if delta < 0 {
		absDelta = -delta
		inc = 1
	} else {
		absDelta = delta
		inc = -1
	}

	if absDelta <= errThr {
		// Fast path: small residue, correct the single largest bucket.
		norm[idxMax] -= delta
		return norm, nil
	}

	if delta < 0 {
		norm[idxMax] += errThr
		sum += errThr
	} else {
		norm[idxMax] -= errThr
		sum -= errThr
	}

	spreadResidue(norm, inc, &sum, tableSize)
	return norm, nil
}

type freqSlot struct {
	idx int
}

// spreadResidue distributes the remaining +/-1 correction across the
// normalized table's largest frequencies first, never zeroing out a symbol
// that started with a nonzero frequency.
func spreadResidue(norm []int, inc int, sum *int, tableSize int) {
	queue := make([]freqSlot, 0, len(norm))

	for i, f := range norm {
		if f > 2 {
			queue = append(queue, freqSlot{idx: i})
		}
	}

	slices.SortFunc(queue, func(a, b freqSlot) int {
		return norm[b.idx] - norm[a.idx]
	})

	for len(queue) != 0 && *sum != tableSize {
		s := queue[0]
		queue = queue[1:]

		if norm[s.idx] == -inc {
			continue
		}

		norm[s.idx] += inc
		*sum += inc
		queue = append(queue, s)
	}

	if *sum != tableSize {
		for i := range norm {
			if norm[i] == 0 {
				continue
			}

			if norm[i] == -inc {
				continue
			}

			norm[i] += inc
			*sum += inc

			if *sum == tableSize {
				break
			}
		}
	}
}
