package interval

import (
	"sort"

	"github.com/biogo/store/interval"
)

// regionInterval adapts a Region to the biogo interval-tree interface.
// Coordinates stay half-open: two intervals overlap iff each starts before
// the other ends.
type regionInterval struct {
	start, end int
	uid        uintptr
	region     Region
}

func (i regionInterval) Overlap(b interval.IntRange) bool {
	return i.end > b.Start && i.start < b.End
}

func (i regionInterval) ID() uintptr { return i.uid }

func (i regionInterval) Range() interval.IntRange {
	return interval.IntRange{Start: i.start, End: i.end}
}

// Index answers "which regions overlap [start, end) on this chromosome"
// queries over a fixed region set.  It is immutable after NewIndex and safe
// for concurrent readers.
type Index struct {
	trees map[string]*interval.IntTree
}

// NewIndex builds a per-chromosome interval tree over regions.  Regions may
// overlap each other; exact duplicates are kept.
func NewIndex(regions []Region) (*Index, error) {
	idx := &Index{trees: make(map[string]*interval.IntTree)}
	for i, region := range regions {
		tree, ok := idx.trees[region.Chrom]
		if !ok {
			tree = &interval.IntTree{}
			idx.trees[region.Chrom] = tree
		}
		iv := regionInterval{
			start:  region.Start,
			end:    region.End,
			uid:    uintptr(i),
			region: region,
		}
		if err := tree.Insert(iv, false); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// Overlapping returns every indexed region overlapping [start, end) on chrom,
// sorted by (Start, End, insertion order).  A chromosome absent from the
// index yields nil.
func (idx *Index) Overlapping(chrom string, start, end int) []Region {
	tree, ok := idx.trees[chrom]
	if !ok {
		return nil
	}
	hits := tree.Get(regionInterval{start: start, end: end})
	if len(hits) == 0 {
		return nil
	}
	matches := make([]regionInterval, len(hits))
	for i, hit := range hits {
		matches[i] = hit.(regionInterval)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}
		if matches[i].end != matches[j].end {
			return matches[i].end < matches[j].end
		}
		return matches[i].uid < matches[j].uid
	})
	regions := make([]Region, len(matches))
	for i, m := range matches {
		regions[i] = m.region
	}
	return regions
}

// HasChrom reports whether any indexed region lives on chrom.
func (idx *Index) HasChrom(chrom string) bool {
	_, ok := idx.trees[chrom]
	return ok
}
