package aggregate

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capturec/chic/interval"
)

func TestShardBounds(t *testing.T) {
	for _, test := range []struct{ n, w int }{
		{1, 1}, {4, 2}, {5, 2}, {7, 3}, {10, 4}, {10, 10},
	} {
		bounds := shardBounds(test.n, test.w)
		require.Len(t, bounds, test.w, "n=%d w=%d", test.n, test.w)
		per := test.n / test.w
		prev := 0
		for i, b := range bounds {
			assert.Equal(t, prev, b[0], "n=%d w=%d shard %d", test.n, test.w, i)
			if i < test.w-1 {
				assert.Equal(t, per, b[1]-b[0], "n=%d w=%d shard %d", test.n, test.w, i)
			}
			prev = b[1]
		}
		assert.Equal(t, test.n, prev, "n=%d w=%d", test.n, test.w)
	}
}

const testViewpointHeader = "# interactions of viewpoint chr1:14300280-14300280 Eya1"

func writeFile(t *testing.T, path, content string) {
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))
}

// writeViewpointPair writes the two sample files of one job and returns the
// job referencing them by bare name.
func writeViewpointPair(t *testing.T, dir, gene string, rows string) Job {
	first := "FL-E13-5_" + gene + ".txt"
	second := "MB-E10-5_" + gene + ".txt"
	content := testViewpointHeader + "\n" + rows
	writeFile(t, filepath.Join(dir, first), content)
	writeFile(t, filepath.Join(dir, second), content)
	return Job{First: first, Second: second}
}

const twoBinRows = "chr1\t100\t200\tEya1\t1523.5\t-5000\t1.0\t2.0\t3.0\n" +
	"chr1\t200\t300\tEya1\t1523.5\t-4000\t4.0\t5.0\t6.0\n"

func batchOpts(dir string) Opts {
	opts := DefaultOpts
	opts.InteractionFolder = dir
	opts.TargetFolder = dir
	opts.OutputFolder = filepath.Join(dir, "out")
	opts.ErrorLogPath = filepath.Join(dir, "errorLog.txt")
	opts.Parallelism = 2
	return opts
}

func TestRunBatchSharedTarget(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "out"), 0755))
	jobs := []Job{
		writeViewpointPair(t, dir, "Eya1", twoBinRows),
		writeViewpointPair(t, dir, "Sox17", twoBinRows),
	}
	writeFile(t, filepath.Join(dir, "targets.bed"), "chr1\t100\t300\n")

	opts := batchOpts(dir)
	opts.TargetMode = TargetShared
	opts.SharedTargetPath = filepath.Join(dir, "targets.bed")

	outNames, err := RunBatch(jobs, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"FL-E13-5_Eya1_aggregate_target.txt",
		"MB-E10-5_Eya1_aggregate_target.txt",
		"FL-E13-5_Sox17_aggregate_target.txt",
		"MB-E10-5_Sox17_aggregate_target.txt",
	}, outNames)

	for _, name := range outNames {
		data, err := ioutil.ReadFile(filepath.Join(dir, "out", name))
		require.NoError(t, err)
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		require.Len(t, lines, 4)
		assert.Equal(t, testViewpointHeader, lines[1])
		assert.Equal(t, "chr1\t100\t300\tEya1\t1523.5\t-5000\t   9.00000", lines[3])
	}

	// No job failed, so no error log file was created.
	_, err = os.Stat(opts.ErrorLogPath)
	assert.True(t, os.IsNotExist(err))
}

func TestRunBatchPerJobTargets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "out"), 0755))
	jobA := writeViewpointPair(t, dir, "Eya1", twoBinRows)
	jobB := writeViewpointPair(t, dir, "Sox17", twoBinRows)
	writeFile(t, filepath.Join(dir, "targetsA.bed"), "chr1\t100\t300\n")
	writeFile(t, filepath.Join(dir, "targetsB.bed"), "chr1\t200\t300\n")
	jobA.Target = "targetsA.bed"
	jobB.Target = "targetsB.bed"

	opts := batchOpts(dir)
	outNames, err := RunBatch([]Job{jobA, jobB}, opts)
	require.NoError(t, err)
	require.Len(t, outNames, 4)

	// Job B's target captures only the second bin.
	data, err := ioutil.ReadFile(filepath.Join(dir, "out", "FL-E13-5_Sox17_aggregate_target.txt"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "chr1\t200\t300\tEya1\t1523.5\t-4000\t   6.00000"))
}

func TestRunBatchFailFast(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "out"), 0755))
	good := writeViewpointPair(t, dir, "Eya1", twoBinRows)
	missing := Job{First: "no-such-file.txt", Second: "no-such-file2.txt"}
	writeFile(t, filepath.Join(dir, "targets.bed"), "chr1\t100\t300\n")

	opts := batchOpts(dir)
	opts.TargetMode = TargetShared
	opts.SharedTargetPath = filepath.Join(dir, "targets.bed")

	outNames, err := RunBatch([]Job{good, missing}, opts)
	require.Error(t, err)
	assert.Nil(t, outNames)

	// The successful sibling shard's files were written before the failure
	// was observed; they stay on disk.
	_, err = os.Stat(filepath.Join(dir, "out", "FL-E13-5_Eya1_aggregate_target.txt"))
	assert.NoError(t, err)
}

func TestRunBatchEmptyResultLogged(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "out"), 0755))
	job := writeViewpointPair(t, dir, "Eya1", twoBinRows)
	// Target on a chromosome no bin touches.
	writeFile(t, filepath.Join(dir, "targets.bed"), "chr9\t100\t300\n")

	opts := batchOpts(dir)
	opts.TargetMode = TargetShared
	opts.SharedTargetPath = filepath.Join(dir, "targets.bed")

	outNames, err := RunBatch([]Job{job}, opts)
	require.NoError(t, err)
	assert.Empty(t, outNames)

	data, err := ioutil.ReadFile(opts.ErrorLogPath)
	require.NoError(t, err)
	want := "Failed for: " + job.First + " and " + job.Second + ".\n"
	// One log line per sample of the pair.
	assert.Equal(t, want+want, string(data))

	files, err := ioutil.ReadDir(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestRunBatchEmptySharedTargetLogged(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "out"), 0755))
	job := writeViewpointPair(t, dir, "Eya1", twoBinRows)
	// Comments only: the parsed region list is empty.
	writeFile(t, filepath.Join(dir, "targets.bed"), "# no regions\n")

	opts := batchOpts(dir)
	opts.TargetMode = TargetShared
	opts.SharedTargetPath = filepath.Join(dir, "targets.bed")

	// Batch mode: every job is reported in the error log, the batch itself
	// succeeds with no output.
	outNames, err := RunBatch([]Job{job}, opts)
	require.NoError(t, err)
	assert.Empty(t, outNames)

	data, err := ioutil.ReadFile(opts.ErrorLogPath)
	require.NoError(t, err)
	want := "Failed for: " + job.First + " and " + job.Second + ".\n"
	assert.Equal(t, want+want, string(data))

	// Single-run mode stays fatal.
	_, err = Run([]Job{job}, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no target regions found")
}

func TestRunRegionFilter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "out"), 0755))
	job := writeViewpointPair(t, dir, "Eya1", twoBinRows)
	writeFile(t, filepath.Join(dir, "targets.bed"), "chr1\t100\t200\nchr1\t200\t300\n")
	job.Target = "targets.bed"

	opts := batchOpts(dir)
	region, err := interval.ParseRegionString("chr1:201-300")
	require.NoError(t, err)
	opts.FilterRegion = &region

	outNames, err := Run([]Job{job}, opts)
	require.NoError(t, err)
	require.Len(t, outNames, 2)

	// Only the second target survives the filter, so only the second bin is
	// aggregated.
	data, err := ioutil.ReadFile(filepath.Join(dir, "out", outNames[0]))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "chr1\t200\t300\tEya1\t1523.5\t-4000\t   6.00000"))
	assert.False(t, strings.Contains(string(data), "-5000"))
}

func TestRunSingleModeEmptyIsFatal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "out"), 0755))
	job := writeViewpointPair(t, dir, "Eya1", twoBinRows)
	writeFile(t, filepath.Join(dir, "targets.bed"), "chr9\t100\t300\n")
	job.Target = "targets.bed"

	opts := batchOpts(dir)
	_, err := Run([]Job{job}, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no target regions found")
}

func TestRunThresholdMode(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "out"), 0755))
	rows := "chr1\t100\t200\tEya1\t1523.5\t-5000\t1.0\t2.5\t3.0\n" +
		"chr1\t200\t300\tEya1\t1523.5\t-4000\t4.0\t0.5\t6.0\n"
	job := writeViewpointPair(t, dir, "Eya1", rows)

	opts := batchOpts(dir)
	opts.TargetMode = TargetThreshold
	opts.RbzThreshold = 1.96

	outNames, err := Run([]Job{job}, opts)
	require.NoError(t, err)
	require.Len(t, outNames, 2)

	data, err := ioutil.ReadFile(filepath.Join(dir, "out", outNames[0]))
	require.NoError(t, err)
	// Only the first bin passes the threshold; paired-mode output carries
	// the rbz column.
	assert.True(t, strings.Contains(string(data), "Raw target\tRbz-score"))
	assert.True(t, strings.Contains(string(data), "chr1\t100\t200\tEya1\t1523.5\t-5000\t   3.00000\t   2.50000"))
}

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "vp.txt"), "a.txt\nb.txt\nc.txt\nd.txt\n\nignored.txt\n")
	pairs, err := ReadViewpointManifest(filepath.Join(dir, "vp.txt"))
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"a.txt", "b.txt"}, {"c.txt", "d.txt"}}, pairs)

	writeFile(t, filepath.Join(dir, "odd.txt"), "a.txt\nb.txt\nc.txt\n")
	_, err = ReadViewpointManifest(filepath.Join(dir, "odd.txt"))
	assert.Error(t, err)

	writeFile(t, filepath.Join(dir, "targets.txt"), "t1.bed\nt2.bed\n")
	targets, err := ReadTargetManifest(filepath.Join(dir, "targets.txt"))
	require.NoError(t, err)
	assert.Equal(t, []string{"t1.bed", "t2.bed"}, targets)

	namesPath := filepath.Join(dir, "names.txt")
	require.NoError(t, WriteNamesManifest(namesPath, []string{"x.txt", "y.txt"}))
	data, err := ioutil.ReadFile(namesPath)
	require.NoError(t, err)
	assert.Equal(t, "x.txt\ny.txt\n", string(data))
}
