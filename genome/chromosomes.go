// Package genome orders chromosomes for genomic bin sorting.
package genome

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/gmaffy/singlecell-whisperer/utils"
)

// DefaultChromosomes returns the human autosomes followed by X and Y.
func DefaultChromosomes() []string {
	chroms := make([]string, 0, 24)
	for i := 1; i <= 22; i++ {
		chroms = append(chroms, strconv.Itoa(i))
	}
	return append(chroms, "X", "Y")
}

// ChromosomesFromFasta returns the sequence names of a reference FASTA in
// file order. Gzipped references are read transparently.
func ChromosomesFromFasta(refFile string) ([]string, error) {
	fna, err := utils.OpenReader(refFile)
	if err != nil {
		return nil, err
	}
	defer fna.Close()

	r := fasta.NewReader(fna, linear.NewSeq("", nil, alphabet.DNA))
	sc := seqio.NewScanner(r)
	var names []string
	seen := make(map[string]bool)
	for sc.Next() {
		s := sc.Seq().(*linear.Seq)
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		names = append(names, s.ID)
	}
	if err := sc.Error(); err != nil {
		return nil, fmt.Errorf("reading reference %s: %w", refFile, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("reference %s has no sequences", refFile)
	}
	return names, nil
}

// Order ranks chromosome names. Names outside the order rank after every
// known chromosome and compare by name among themselves.
type Order struct {
	names []string
	rank  map[string]int
}

// NewOrder builds an Order; an empty list falls back to DefaultChromosomes.
func NewOrder(chroms []string) Order {
	if len(chroms) == 0 {
		chroms = DefaultChromosomes()
	}
	rank := make(map[string]int, len(chroms))
	var names []string
	for i, c := range chroms {
		if _, ok := rank[c]; !ok {
			rank[c] = i
			names = append(names, c)
		}
	}
	return Order{names: names, rank: rank}
}

// Names returns the ordered chromosome names.
func (o Order) Names() []string { return append([]string(nil), o.names...) }

// Known reports whether chrom is part of the order.
func (o Order) Known(chrom string) bool {
	_, ok := o.rank[chrom]
	return ok
}

// Less reports whether chromosome a sorts before b.
func (o Order) Less(a, b string) bool {
	ra, okA := o.rank[a]
	rb, okB := o.rank[b]
	switch {
	case okA && okB:
		return ra < rb
	case okA:
		return true
	case okB:
		return false
	}
	return a < b
}

// Sort sorts chroms in place by the order.
func (o Order) Sort(chroms []string) {
	sort.SliceStable(chroms, func(i, j int) bool { return o.Less(chroms[i], chroms[j]) })
}
