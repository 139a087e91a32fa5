package pgs

import "github.com/soccp-go/soccp/block"

// colorRows runs a greedy graph coloring over m's row-coupling graph:
// rows sharing a structural (non-diagonal) block are adjacent and must
// receive different colors. The result groups row indices by color so
// that every row within a color class can be updated in parallel
// without racing against another row in the same class (spec.md
// §7.3).
func colorRows[B block.Block](m *block.Matrix[B]) [][]int {
	n := m.RowsOfBlocks()
	neighbors := make([][]int, n)
	for i := 0; i < n; i++ {
		neighbors[i] = m.RowNeighbors(i)
	}

	colorOf := make([]int, n)
	for i := range colorOf {
		colorOf[i] = -1
	}

	maxColor := -1
	used := make(map[int]bool)
	for i := 0; i < n; i++ {
		for k := range used {
			delete(used, k)
		}
		for _, j := range neighbors[i] {
			if j < i && colorOf[j] >= 0 {
				used[colorOf[j]] = true
			}
		}
		c := 0
		for used[c] {
			c++
		}
		colorOf[i] = c
		if c > maxColor {
			maxColor = c
		}
	}

	classes := make([][]int, maxColor+1)
	for i, c := range colorOf {
		classes[c] = append(classes[c], i)
	}
	return classes
}
