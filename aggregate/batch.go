package aggregate

import (
	"github.com/capturec/chic/interval"
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// shardResult is the one-shot message a worker sends back: either the output
// file names it produced, in job order, or its failure.
type shardResult struct {
	files []string
	err   error
}

// shardBounds partitions n jobs into w contiguous slices: floor(n/w) jobs in
// each of the first w-1 shards, the remainder in the last.
//
// REQUIRES: 1 <= w <= n.
func shardBounds(n, w int) [][2]int {
	per := n / w
	bounds := make([][2]int, w)
	for i := 0; i < w-1; i++ {
		bounds[i] = [2]int{i * per, (i + 1) * per}
	}
	bounds[w-1] = [2]int{(w - 1) * per, n}
	return bounds
}

func runShard(jobs []Job, sharedIdx *interval.Index, opts Opts, errLog *ErrorLog) (res shardResult) {
	defer func() {
		if r := recover(); r != nil {
			res = shardResult{err: errors.Errorf("worker panic: %v", r)}
		}
	}()
	for _, job := range jobs {
		files, err := processJob(job, sharedIdx, opts, errLog)
		if err != nil {
			return shardResult{err: err}
		}
		res.files = append(res.files, files...)
	}
	return res
}

// RunBatch executes jobs with bounded parallelism: the job list is split
// into opts.Parallelism contiguous shards (clamped to the number of jobs),
// each shard runs in its own worker goroutine with no shared mutable state,
// and every worker reports once on a dedicated channel.  All workers are
// awaited before any failure is acted on, so a failing shard never cuts its
// siblings short; if any shard failed, every failure is logged and RunBatch
// returns an error without any file names.  On full success it returns the
// flattened output file names in shard order, job order within shard.
func RunBatch(jobs []Job, opts Opts) ([]string, error) {
	if len(jobs) == 0 {
		return nil, errors.New("aggregate: no jobs to run")
	}
	sharedIdx, err := sharedIndex(opts)
	if err != nil {
		return nil, err
	}
	errLog := NewErrorLog(opts.ErrorLogPath)
	defer func() {
		if cerr := errLog.Close(); cerr != nil {
			log.Error.Printf("closing error log: %v", cerr)
		}
	}()

	w := opts.Parallelism
	if w < 1 {
		w = 1
	}
	if w > len(jobs) {
		w = len(jobs)
	}
	bounds := shardBounds(len(jobs), w)
	channels := make([]chan shardResult, w)
	for i := 0; i < w; i++ {
		channels[i] = make(chan shardResult, 1)
		go func(ch chan<- shardResult, shard []Job) {
			ch <- runShard(shard, sharedIdx, opts, errLog)
		}(channels[i], jobs[bounds[i][0]:bounds[i][1]])
	}

	results := make([]shardResult, w)
	for i, ch := range channels {
		results[i] = <-ch
	}

	var (
		outNames []string
		firstErr error
	)
	for i, res := range results {
		if res.err != nil {
			log.Error.Printf("worker %d failed: %+v", i, res.err)
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		outNames = append(outNames, res.files...)
	}
	if firstErr != nil {
		return nil, errors.Wrap(firstErr, "batch aggregation failed")
	}
	return outNames, nil
}
