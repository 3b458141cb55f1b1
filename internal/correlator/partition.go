package correlator

// Partitions returns every sequence (m₁, …, mₙ) of non-negative integers with
// Σ j·mⱼ = n. Each sequence corresponds to exactly one integer partition of n,
// mⱼ counting the parts of size j.
//
// The search assigns the largest feasible multiplicity to mⱼ first and walks
// down to zero, descending into mⱼ₊₁ while a positive remainder is left.
func Partitions(n int) [][]int {
	if n < 1 {
		return nil
	}
	return enumerate(n, 1, n, make([]int, n), nil)
}

func enumerate(n, j, remainder int, m []int, acc [][]int) [][]int {
	for k := remainder / j; k >= 0; k-- {
		m[j-1] = k
		left := remainder - j*k
		switch {
		case left == 0:
			seq := make([]int, n)
			copy(seq, m[:j])
			acc = append(acc, seq)
		case j < n:
			acc = enumerate(n, j+1, left, m, acc)
		}
	}
	m[j-1] = 0
	return acc
}
