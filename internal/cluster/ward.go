package cluster

import "math"

// step records one agglomeration. The merged group keeps working slot a and
// slot b is retired.
type step struct {
	a, b     int
	distance float64
	size     int
}

// squaredDistances returns the full symmetric matrix of squared Euclidean
// distances between vectors.
func squaredDistances(vectors [][]float64) [][]float64 {
	n := len(vectors)
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var sum float64
			for k := range vectors[i] {
				diff := vectors[i][k] - vectors[j][k]
				sum += diff * diff
			}
			d[i][j], d[j][i] = sum, sum
		}
	}
	return d
}

// ward runs Ward linkage over a squared distance matrix using the
// Lance-Williams recurrence and returns the n-1 merge steps. The matrix is
// not modified.
func ward(dist [][]float64) []step {
	n := len(dist)
	if n < 2 {
		return nil
	}

	d := make([][]float64, n)
	for i := range dist {
		d[i] = append([]float64(nil), dist[i]...)
	}
	size := make([]int, n)
	active := make([]bool, n)
	for i := range size {
		size[i] = 1
		active[i] = true
	}

	steps := make([]step, 0, n-1)
	for len(steps) < n-1 {
		best, bi, bj := math.Inf(1), -1, -1
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && d[i][j] < best {
					best, bi, bj = d[i][j], i, j
				}
			}
		}

		ni, nj := float64(size[bi]), float64(size[bj])
		for k := 0; k < n; k++ {
			if !active[k] || k == bi || k == bj {
				continue
			}
			nk := float64(size[k])
			v := ((nk+ni)*d[bi][k] + (nk+nj)*d[bj][k] - nk*best) / (nk + ni + nj)
			d[bi][k], d[k][bi] = v, v
		}
		size[bi] += size[bj]
		active[bj] = false

		steps = append(steps, step{a: bi, b: bj, distance: math.Sqrt(math.Max(best, 0)), size: size[bi]})
	}
	return steps
}

// cutTree applies every merge at or below threshold and returns a label per
// point. Labels are numbered from 0 in order of first appearance.
func cutTree(steps []step, n int, threshold float64) []int {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for _, s := range steps {
		if s.distance <= threshold {
			parent[find(s.b)] = find(s.a)
		}
	}

	labels := make([]int, n)
	seen := make(map[int]int)
	for i := 0; i < n; i++ {
		root := find(i)
		label, ok := seen[root]
		if !ok {
			label = len(seen)
			seen[root] = label
		}
		labels[i] = label
	}
	return labels
}
