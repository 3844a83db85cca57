package aggregate

import (
	"github.com/capturec/chic/encoding/viewpoint"
	"github.com/capturec/chic/interval"
	"github.com/pkg/errors"
)

// ErrNoTargetRegions reports an empty target region source or an aggregation
// that captured no bins.  Non-fatal per job in batch mode, fatal otherwise.
var ErrNoTargetRegions = errors.New("no target regions found")

// ThresholdTargets derives target regions from a paired sample: every bin
// whose rbz-score is at least threshold, selected independently in each of
// the two samples, as its own (chrom, start, end) region.  The union
// preserves first-sample-then-second order and removes exact duplicates.
// The result is a pure region list; no aggregated fields are defined on it.
func ThresholdTargets(first, second []viewpoint.Record, threshold float64) []interval.Region {
	seen := make(map[interval.Region]bool)
	var regions []interval.Region
	for _, recs := range [][]viewpoint.Record{first, second} {
		for _, rec := range recs {
			if rec.RbzScore < threshold {
				continue
			}
			region := interval.Region{Chrom: rec.Chrom, Start: rec.Start, End: rec.End}
			if seen[region] {
				continue
			}
			seen[region] = true
			regions = append(regions, region)
		}
	}
	return regions
}
