package aggregate

import (
	"path/filepath"

	"github.com/capturec/chic/encoding/viewpoint"
	"github.com/capturec/chic/interval"
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// Job is one unit of work: a pair of viewpoint files measuring the same
// viewpoint in two related samples, plus the job's target region file when
// targets are per-job.  Each sample is aggregated and written separately.
type Job struct {
	First, Second string
	Target        string
}

func joinFolder(folder, name string) string {
	if folder == "" || folder == "." {
		return name
	}
	return filepath.Join(folder, name)
}

// outputName derives an output file name from a sample file name: the base
// name with its extension replaced by _suffix.
func outputName(sample, suffix string) string {
	base := filepath.Base(sample)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return base + "_" + suffix
}

type sample struct {
	header string
	recs   []viewpoint.Record
}

// filterTargets drops target regions that do not overlap the optional filter
// region.  A nil filter keeps the list as is.
func filterTargets(regions []interval.Region, filter *interval.Region) []interval.Region {
	if filter == nil {
		return regions
	}
	var out []interval.Region
	for _, region := range regions {
		if region.Overlaps(*filter) {
			out = append(out, region)
		}
	}
	return out
}

// processJob aggregates both samples of one job and writes one output file
// per sample.  It returns the bare names of the files written.  A sample
// yielding zero aggregated rows appends to errLog and produces no file when
// errLog is non-nil (batch mode); otherwise it fails the run.
func processJob(job Job, sharedIdx *interval.Index, opts Opts, errLog *ErrorLog) ([]string, error) {
	var samples [2]sample
	for i, name := range []string{job.First, job.Second} {
		header, recs, err := viewpoint.ReadFromPath(joinFolder(opts.InteractionFolder, name))
		if err != nil {
			return nil, errors.Wrapf(err, "reading viewpoint file %s", name)
		}
		samples[i] = sample{header: header, recs: recs}
	}

	var (
		idx     *interval.Index
		regions []interval.Region
		err     error
	)
	switch opts.TargetMode {
	case TargetThreshold:
		// The derived list is a plain region list; bins are assigned by
		// strict containment, no index needed.
		regions = ThresholdTargets(samples[0].recs, samples[1].recs, opts.RbzThreshold)
		regions = filterTargets(regions, opts.FilterRegion)
	case TargetShared:
		idx = sharedIdx
	case TargetPerJob:
		targetPath := joinFolder(opts.TargetFolder, job.Target)
		if regions, err = interval.ReadBEDFromPath(targetPath); err != nil {
			return nil, errors.Wrapf(err, "reading target file %s", job.Target)
		}
		regions = filterTargets(regions, opts.FilterRegion)
		if len(regions) > 0 {
			if idx, err = interval.NewIndex(regions); err != nil {
				return nil, errors.Wrapf(err, "indexing target file %s", job.Target)
			}
		}
	}

	var outNames []string
	for i, name := range []string{job.First, job.Second} {
		var rows []Row
		switch {
		case opts.TargetMode == TargetThreshold:
			rows = AggregateContained(samples[i].recs, regions)
		case idx != nil:
			rows = Aggregate(samples[i].recs, idx)
		}
		rows = MergeNeighbors(rows, opts.MergeThreshold)
		if len(rows) == 0 {
			if errLog == nil {
				return nil, errors.Wrapf(ErrNoTargetRegions, "%s and %s", job.First, job.Second)
			}
			errLog.Failedf("Failed for: %s and %s.", job.First, job.Second)
			continue
		}
		outName := outputName(name, opts.Suffix)
		outPath := joinFolder(opts.OutputFolder, outName)
		wopts := viewpoint.WriteAggregatedOpts{WithRbz: opts.TargetMode == TargetThreshold}
		if err = viewpoint.WriteAggregatedToPath(outPath, samples[i].header, Records(rows), wopts); err != nil {
			return nil, errors.Wrapf(err, "writing %s", outPath)
		}
		log.Debug.Printf("wrote %d aggregated rows to %s", len(rows), outPath)
		outNames = append(outNames, outName)
	}
	return outNames, nil
}

// sharedIndex builds the interval index once for TargetShared runs; every
// worker shares it read-only.  An empty region list yields a nil index, so
// every job flows into processJob's empty-result handling: an error-log line
// per sample in batch mode, a fatal error otherwise.
func sharedIndex(opts Opts) (*interval.Index, error) {
	if opts.TargetMode != TargetShared {
		return nil, nil
	}
	regions, err := interval.ReadBEDFromPath(opts.SharedTargetPath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading target file %s", opts.SharedTargetPath)
	}
	regions = filterTargets(regions, opts.FilterRegion)
	if len(regions) == 0 {
		return nil, nil
	}
	return interval.NewIndex(regions)
}

// Run processes jobs serially in the calling goroutine.  Unlike RunBatch, a
// sample with no aggregated rows fails the whole run.
func Run(jobs []Job, opts Opts) ([]string, error) {
	idx, err := sharedIndex(opts)
	if err != nil {
		return nil, err
	}
	var outNames []string
	for _, job := range jobs {
		names, err := processJob(job, idx, opts, nil)
		if err != nil {
			return nil, err
		}
		outNames = append(outNames, names...)
	}
	return outNames, nil
}
