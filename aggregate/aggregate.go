// Package aggregate implements the core of chic-aggregate: assignment of
// viewpoint bins to target regions, accumulation of per-bin statistics into
// one row per target, the optional merging of adjacent rows, and the batch
// execution model that fans the work out over many viewpoint/target pairs.
package aggregate

import (
	"sort"

	"github.com/capturec/chic/encoding/viewpoint"
	"github.com/capturec/chic/interval"
)

// Row is one aggregated target: the accumulated record plus the bin key (file
// row index) of the first bin assigned to the target.  The key identifies the
// row; the other bins of the group are not separately emitted.
type Row struct {
	Key int
	Rec viewpoint.Record
}

// mergeGroup combines a non-empty group of records into one.  The result is
// seeded from the first record; the end coordinate and sum-of-interactions
// come from the last record; the trailing triple is the elementwise sum over
// the whole group.
func mergeGroup(recs []viewpoint.Record) viewpoint.Record {
	out := recs[0]
	var a, b, c float64
	for _, rec := range recs {
		a += rec.RelativeInteractions
		b += rec.RbzScore
		c += rec.Raw
	}
	last := recs[len(recs)-1]
	out.End = last.End
	out.SumOfInteractions = last.SumOfInteractions
	out.RelativeInteractions = a
	out.RbzScore = b
	out.Raw = c
	return out
}

func collectRows(recs []viewpoint.Record, groups map[interval.Region][]int) []Row {
	rows := make([]Row, 0, len(groups))
	var group []viewpoint.Record
	for _, keys := range groups {
		// Accumulation order is fixed by the bin key, not genomic position.
		sort.Ints(keys)
		group = group[:0]
		for _, key := range keys {
			group = append(group, recs[key])
		}
		rows = append(rows, Row{Key: keys[0], Rec: mergeGroup(group)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows
}

// Aggregate maps every bin to at most one indexed target region by interval
// overlap and accumulates each target's bins into one Row.  When several
// targets overlap a bin, the first in the index's sorted order wins.  Bins on
// chromosomes absent from the index are dropped.  Targets capturing no bin
// emit no row.  Rows are returned in ascending key order.
func Aggregate(recs []viewpoint.Record, idx *interval.Index) []Row {
	groups := make(map[interval.Region][]int)
	for key, rec := range recs {
		if !idx.HasChrom(rec.Chrom) {
			continue
		}
		hits := idx.Overlapping(rec.Chrom, rec.Start, rec.End)
		if len(hits) == 0 {
			continue
		}
		groups[hits[0]] = append(groups[hits[0]], key)
	}
	return collectRows(recs, groups)
}

// AggregateContained is the range-membership variant of Aggregate, used when
// operating directly against an explicit region list without an index.  A bin
// is assigned only when fully contained in the target ([start, end) of the
// bin inside [start, end) of the target); the first containing target in list
// order wins.  This is intentionally stricter than the overlap semantics of
// Aggregate.
func AggregateContained(recs []viewpoint.Record, targets []interval.Region) []Row {
	groups := make(map[interval.Region][]int)
	for key, rec := range recs {
		for _, target := range targets {
			if rec.Chrom != target.Chrom {
				continue
			}
			if rec.Start >= target.Start && rec.End <= target.End {
				groups[target] = append(groups[target], key)
				break
			}
		}
	}
	return collectRows(recs, groups)
}

// MergeNeighbors merges adjacent aggregated rows in a single left-to-right
// pass.  Consecutive rows on the same chromosome are merged when the gap
// between the predecessor's end and the successor's start is strictly below
// threshold; consecutive mergeable pairs chain into one group, combined by
// the same accumulation rule as Aggregate and keyed by the chain's first row.
// A threshold <= 0 disables merging.
func MergeNeighbors(rows []Row, threshold int) []Row {
	if threshold <= 0 || len(rows) < 2 {
		return rows
	}
	abs := func(x int) int {
		if x < 0 {
			return -x
		}
		return x
	}
	out := make([]Row, 0, len(rows))
	group := []viewpoint.Record{rows[0].Rec}
	key := rows[0].Key
	for _, row := range rows[1:] {
		prev := group[len(group)-1]
		if row.Rec.Chrom == prev.Chrom && abs(prev.End-row.Rec.Start) < threshold {
			group = append(group, row.Rec)
			continue
		}
		out = append(out, Row{Key: key, Rec: mergeGroup(group)})
		group = append(group[:0], row.Rec)
		key = row.Key
	}
	out = append(out, Row{Key: key, Rec: mergeGroup(group)})
	return out
}

// Records strips the keys off rows for writing.
func Records(rows []Row) []viewpoint.Record {
	recs := make([]viewpoint.Record, len(rows))
	for i, row := range rows {
		recs[i] = row.Rec
	}
	return recs
}
