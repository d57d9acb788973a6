package hmmcopy

import (
	"fmt"
	"math"
	"sort"
)

// Method is an agglomerative linkage criterion.
type Method string

const (
	Ward     Method = "ward"
	Average  Method = "average"
	Complete Method = "complete"
	Weighted Method = "weighted"
	Single   Method = "single"
)

// ParseMethod validates a linkage name.
func ParseMethod(name string) (Method, error) {
	switch m := Method(name); m {
	case Ward, Average, Complete, Weighted, Single:
		return m, nil
	}
	return "", &ConfigError{Option: "linkage", Reason: "must be one of ward, average, complete, weighted, single, got " + name}
}

// update is the Lance-Williams distance from cluster i to the union of x and y.
func (m Method) update(dxi, dyi, dxy float64, nx, ny, ni int) float64 {
	switch m {
	case Average:
		return (float64(nx)*dxi + float64(ny)*dyi) / float64(nx+ny)
	case Complete:
		return math.Max(dxi, dyi)
	case Single:
		return math.Min(dxi, dyi)
	case Weighted:
		return 0.5 * (dxi + dyi)
	}
	t := 1.0 / float64(nx+ny+ni)
	v := float64(ni+nx)*t*dxi*dxi + float64(ni+ny)*t*dyi*dyi - float64(ni)*t*dxy*dxy
	// non-euclidean inputs can push the ward term slightly below zero
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}

// Merge joins clusters A and B (A < B) at Height into a cluster of Size
// observations. Observations are clusters 0..n-1; merge k creates n+k.
type Merge struct {
	A, B   int
	Height float64
	Size   int
}

// Dendrogram is the merge list of a hierarchical clustering of N observations,
// sorted by height.
type Dendrogram struct {
	N      int
	Merges []Merge
}

// Linkage clusters n observations given their condensed distance vector,
// using the nearest-neighbour chain algorithm.
func Linkage(dists []float64, n int, method Method) (Dendrogram, error) {
	if _, err := ParseMethod(string(method)); err != nil {
		return Dendrogram{}, err
	}
	if n < 0 {
		return Dendrogram{}, fmt.Errorf("negative observation count %d", n)
	}
	if want := n * (n - 1) / 2; len(dists) != want {
		return Dendrogram{}, fmt.Errorf("distance vector has %d entries, want %d for %d observations", len(dists), want, n)
	}
	if n < 2 {
		return Dendrogram{N: n}, nil
	}

	D := append([]float64(nil), dists...)
	size := make([]int, n)
	for i := range size {
		size[i] = 1
	}
	merges := make([]Merge, n-1)
	chain := make([]int, 0, n)

	for k := 0; k < n-1; k++ {
		if len(chain) == 0 {
			for i := 0; i < n; i++ {
				if size[i] > 0 {
					chain = append(chain, i)
					break
				}
			}
		}

		var x, y int
		var currentMin float64
		for {
			x = chain[len(chain)-1]
			// prefer the previous chain element so the chain cannot cycle
			if len(chain) > 1 {
				y = chain[len(chain)-2]
				currentMin = D[condensedIndex(n, x, y)]
			} else {
				currentMin = math.Inf(1)
			}
			for i := 0; i < n; i++ {
				if size[i] == 0 || i == x {
					continue
				}
				if d := D[condensedIndex(n, x, i)]; d < currentMin {
					currentMin = d
					y = i
				}
			}
			if len(chain) > 1 && y == chain[len(chain)-2] {
				break
			}
			chain = append(chain, y)
		}
		chain = chain[:len(chain)-2]

		if x > y {
			x, y = y, x
		}
		nx, ny := size[x], size[y]
		merges[k] = Merge{A: x, B: y, Height: currentMin, Size: nx + ny}
		size[x] = 0
		size[y] = nx + ny

		for i := 0; i < n; i++ {
			ni := size[i]
			if ni == 0 || i == y {
				continue
			}
			D[condensedIndex(n, i, y)] = method.update(
				D[condensedIndex(n, i, x)], D[condensedIndex(n, i, y)], currentMin, nx, ny, ni)
		}
	}

	sort.SliceStable(merges, func(i, j int) bool { return merges[i].Height < merges[j].Height })
	relabel(merges, n)
	return Dendrogram{N: n, Merges: merges}, nil
}

type unionFind struct {
	parent []int
	size   []int
	next   int
}

func newUnionFind(n int) *unionFind {
	u := &unionFind{parent: make([]int, 2*n-1), size: make([]int, 2*n-1), next: n}
	for i := range u.parent {
		u.parent[i] = i
	}
	for i := 0; i < n; i++ {
		u.size[i] = 1
	}
	return u
}

func (u *unionFind) find(x int) int {
	root := x
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[x] != root {
		x, u.parent[x] = u.parent[x], root
	}
	return root
}

func (u *unionFind) merge(x, y int) int {
	u.parent[x] = u.next
	u.parent[y] = u.next
	s := u.size[x] + u.size[y]
	u.size[u.next] = s
	u.next++
	return s
}

// relabel rewrites the chain's surviving-slot ids into dendrogram node ids:
// merge k becomes node n+k and each merge lists its smaller child first.
func relabel(merges []Merge, n int) {
	uf := newUnionFind(n)
	for i := range merges {
		x, y := uf.find(merges[i].A), uf.find(merges[i].B)
		if x > y {
			x, y = y, x
		}
		merges[i].A, merges[i].B = x, y
		merges[i].Size = uf.merge(x, y)
	}
}

// Leaves returns the observations in dendrogram pre-order, left child first.
func (d Dendrogram) Leaves() []int {
	if d.N < 2 || len(d.Merges) == 0 {
		leaves := make([]int, d.N)
		for i := range leaves {
			leaves[i] = i
		}
		return leaves
	}
	leaves := make([]int, 0, d.N)
	stack := []int{2*d.N - 2}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node < d.N {
			leaves = append(leaves, node)
			continue
		}
		m := d.Merges[node-d.N]
		stack = append(stack, m.B, m.A)
	}
	return leaves
}
