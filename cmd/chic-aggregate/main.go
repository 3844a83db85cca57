package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/capturec/chic/aggregate"
	"github.com/capturec/chic/interval"
)

var (
	interactionFiles  = flag.String("interaction-files", "", "Comma-separated viewpoint interaction files (pairs of consecutive entries); in batch mode, a manifest file listing them")
	targetFiles       = flag.String("target-files", "", "Comma-separated target region files, one per pair or a single shared file; in batch mode with -target-folder, a manifest file listing them")
	interactionFolder = flag.String("interaction-folder", "", "Folder containing the viewpoint files (batch mode)")
	targetFolder      = flag.String("target-folder", "", "Folder containing the target files (batch mode)")
	outputFolder      = flag.String("output-folder", aggregate.DefaultOpts.OutputFolder, "Folder the aggregated files are written to")
	suffix            = flag.String("suffix", aggregate.DefaultOpts.Suffix, "Output file name suffix")
	writeFileNames    = flag.String("write-file-names", "aggregatedFilesBatch.txt", "Manifest of produced file names, written in batch mode")
	errorLogPath      = flag.String("error-log", aggregate.DefaultOpts.ErrorLogPath, "Shared error log for jobs without aggregated rows (batch mode)")
	batchMode         = flag.Bool("batch", false, "Process manifests of viewpoint/target files instead of explicit lists")
	rbzTargets        = flag.Bool("rbz-targets", false, "Derive target regions from each pair by rbz-score thresholding instead of reading target files")
	regionStr         = flag.String("region", "", "Restrict aggregation to target regions overlapping chr:start-end (1-based, inclusive) or chr:pos")
	rbzThreshold      = flag.Float64("rbz-threshold", aggregate.DefaultOpts.RbzThreshold, "Minimum rbz-score for a bin to seed a target region (with -rbz-targets)")
	mergeThreshold    = flag.Int("merge-threshold", aggregate.DefaultOpts.MergeThreshold, "Merge adjacent aggregated rows closer than this many bases; 0 disables")
	parallelism       = flag.Int("parallelism", aggregate.DefaultOpts.Parallelism, "Number of batch workers; 0 = runtime.NumCPU()")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// buildJobs pairs consecutive viewpoint files and attaches target files,
// returning the jobs and the mode-resolved options.
func buildJobs(opts aggregate.Opts) ([]aggregate.Job, aggregate.Opts) {
	var pairs [][2]string
	var targets []string

	if *batchMode {
		manifests := splitList(*interactionFiles)
		if len(manifests) != 1 {
			log.Fatalf("batch mode expects exactly one viewpoint manifest, got %d", len(manifests))
		}
		var err error
		if pairs, err = aggregate.ReadViewpointManifest(manifests[0]); err != nil {
			log.Fatalf("%v", err)
		}
		if !*rbzTargets {
			targetArgs := splitList(*targetFiles)
			if len(targetArgs) != 1 {
				log.Fatalf("batch mode expects exactly one target file or manifest, got %d", len(targetArgs))
			}
			if *targetFolder != "" {
				// The argument is a manifest listing one target file per job.
				if targets, err = aggregate.ReadTargetManifest(targetArgs[0]); err != nil {
					log.Fatalf("%v", err)
				}
			} else {
				opts.TargetMode = aggregate.TargetShared
				opts.SharedTargetPath = targetArgs[0]
			}
		}
	} else {
		files := splitList(*interactionFiles)
		if len(files) == 0 {
			log.Fatalf("no viewpoint interaction files given")
		}
		if len(files)%2 != 0 {
			log.Fatalf("number of viewpoint interaction files needs to be even: %d", len(files))
		}
		for i := 0; i < len(files); i += 2 {
			pairs = append(pairs, [2]string{files[i], files[i+1]})
		}
		if !*rbzTargets {
			targets = splitList(*targetFiles)
			if len(targets) == 1 && len(pairs) > 1 {
				opts.TargetMode = aggregate.TargetShared
				opts.SharedTargetPath = targets[0]
				targets = nil
			}
		}
	}

	if *rbzTargets {
		opts.TargetMode = aggregate.TargetThreshold
	} else if opts.TargetMode == aggregate.TargetPerJob {
		if len(targets) == 0 {
			log.Fatalf("no target source given: supply -target-files or -rbz-targets")
		}
		if len(targets) != len(pairs) {
			log.Fatalf("got %d target files for %d viewpoint pairs", len(targets), len(pairs))
		}
	}

	jobs := make([]aggregate.Job, len(pairs))
	for i, pair := range pairs {
		jobs[i] = aggregate.Job{First: pair[0], Second: pair[1]}
		if opts.TargetMode == aggregate.TargetPerJob {
			jobs[i].Target = targets[i]
		}
	}
	return jobs, opts
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	opts := aggregate.DefaultOpts
	opts.RbzThreshold = *rbzThreshold
	opts.MergeThreshold = *mergeThreshold
	opts.Suffix = *suffix
	opts.InteractionFolder = *interactionFolder
	opts.TargetFolder = *targetFolder
	opts.OutputFolder = *outputFolder
	opts.ErrorLogPath = *errorLogPath
	opts.Parallelism = *parallelism
	if opts.Parallelism == 0 {
		opts.Parallelism = runtime.NumCPU()
	}
	if *regionStr != "" {
		region, err := interval.ParseRegionString(*regionStr)
		if err != nil {
			log.Fatalf("bad -region %q: %v", *regionStr, err)
		}
		opts.FilterRegion = &region
	}

	jobs, opts := buildJobs(opts)

	if opts.OutputFolder != "" && opts.OutputFolder != "." {
		if err := os.MkdirAll(opts.OutputFolder, 0755); err != nil {
			log.Fatalf("creating output folder %s: %v", opts.OutputFolder, err)
		}
	}

	if *batchMode {
		outNames, err := aggregate.RunBatch(jobs, opts)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if err := aggregate.WriteNamesManifest(*writeFileNames, outNames); err != nil {
			log.Fatalf("writing %s: %v", *writeFileNames, err)
		}
		log.Printf("aggregated %d jobs, wrote %d files", len(jobs), len(outNames))
	} else {
		outNames, err := aggregate.Run(jobs, opts)
		if err != nil {
			log.Fatalf("%v", err)
		}
		log.Printf("wrote %d aggregated files", len(outNames))
	}
}
