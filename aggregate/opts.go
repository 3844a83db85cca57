package aggregate

import "github.com/capturec/chic/interval"

// TargetMode selects how target regions are obtained for each job.
type TargetMode int

const (
	// TargetPerJob reads one target region file per job (Job.Target).
	TargetPerJob TargetMode = iota
	// TargetShared reads a single target region file used by every job.
	TargetShared
	// TargetThreshold derives target regions from the job's paired
	// viewpoint files by rbz-score thresholding.
	TargetThreshold
)

// Opts configures an aggregation run.
type Opts struct {
	// Commandline options.
	TargetMode        TargetMode
	SharedTargetPath  string           // target file path, TargetShared only
	RbzThreshold      float64          // minimum rbz-score, TargetThreshold only
	FilterRegion      *interval.Region // when set, drop target regions not overlapping it
	MergeThreshold    int              // merge gap threshold; 0 disables merging
	Suffix            string           // output file name suffix
	InteractionFolder string           // folder prepended to viewpoint file names
	TargetFolder      string           // folder prepended to per-job target file names
	OutputFolder      string
	ErrorLogPath      string // shared append-only error log, batch mode only
	Parallelism       int    // worker count, clamped to the number of jobs
}

var DefaultOpts = Opts{
	TargetMode:     TargetPerJob,
	RbzThreshold:   1.96,
	MergeThreshold: 0,
	Suffix:         "aggregate_target.txt",
	OutputFolder:   "aggregatedFiles",
	ErrorLogPath:   "errorLog.txt",
	Parallelism:    4,
}
