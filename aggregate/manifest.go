package aggregate

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
)

// manifestLines reads a manifest: one entry per line, terminated by the
// first blank line or EOF.  Lines after a blank line are ignored.
func manifestLines(path string) ([]string, error) {
	ctx := vcontext.Background()
	data, err := file.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// ReadViewpointManifest parses a batch manifest of viewpoint files: two
// consecutive lines form one pair.
func ReadViewpointManifest(path string) ([][2]string, error) {
	lines, err := manifestLines(path)
	if err != nil {
		return nil, err
	}
	if len(lines)%2 != 0 {
		return nil, fmt.Errorf("viewpoint manifest %s: odd number of files (%d), pairs required", path, len(lines))
	}
	pairs := make([][2]string, 0, len(lines)/2)
	for i := 0; i < len(lines); i += 2 {
		pairs = append(pairs, [2]string{lines[i], lines[i+1]})
	}
	return pairs, nil
}

// ReadTargetManifest parses a batch manifest of target files, one per line.
func ReadTargetManifest(path string) ([]string, error) {
	return manifestLines(path)
}

// WriteNamesManifest writes the produced output file names, one per line,
// for chaining into the downstream differential-testing stage.
func WriteNamesManifest(path string, names []string) (err error) {
	ctx := vcontext.Background()
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	once := errors.Once{}
	_, werr := out.Writer(ctx).Write([]byte(strings.Join(names, "\n") + "\n"))
	once.Set(werr)
	once.Set(out.Close(ctx))
	return once.Err()
}
