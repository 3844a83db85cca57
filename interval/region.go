package interval

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/vcontext"
	"github.com/klauspost/compress/gzip"
)

// Region is a genomic interval with 0-based half-open coordinates.
// End must be > Start.
type Region struct {
	Chrom string
	Start int
	End   int
}

func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Start, r.End)
}

// Overlaps reports whether r and other share at least one position.
func (r Region) Overlaps(other Region) bool {
	return r.Chrom == other.Chrom && r.End > other.Start && r.Start < other.End
}

// ReadBED parses a (chromosome, start, end) region list from a tab- or
// space-separated BED-like stream.  Columns past the third are ignored.
// Blank lines and lines starting with '#', 'track' or 'browser' are skipped.
// The regions are returned in file order; no sorting or merging is performed.
func ReadBED(reader io.Reader) (regions []Region, err error) {
	scanner := bufio.NewScanner(reader)
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' ||
			strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser") {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) < 3 {
			return nil, fmt.Errorf("interval.ReadBED: line %d has fewer than 3 columns", lineIdx)
		}
		var start, end int
		if start, err = strconv.Atoi(tokens[1]); err != nil {
			return nil, fmt.Errorf("interval.ReadBED: bad start coordinate %q on line %d", tokens[1], lineIdx)
		}
		if end, err = strconv.Atoi(tokens[2]); err != nil {
			return nil, fmt.Errorf("interval.ReadBED: bad end coordinate %q on line %d", tokens[2], lineIdx)
		}
		if start < 0 || end <= start {
			return nil, fmt.Errorf("interval.ReadBED: invalid coordinate pair [%d, %d) on line %d", start, end, lineIdx)
		}
		regions = append(regions, Region{Chrom: tokens[0], Start: start, End: end})
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}
	return regions, nil
}

// ReadBEDFromPath is a wrapper for ReadBED that takes a path instead of an
// io.Reader.  Files ending in .gz are decompressed transparently.
func ReadBEDFromPath(path string) (regions []Region, err error) {
	ctx := vcontext.Background()
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			return
		}
	}
	return ReadBED(reader)
}

// ParseRegionString parses a region string of one of the forms
//   [contig ID]:[1-based first pos]-[last pos]
//   [contig ID]:[1-based pos]
// returning a 0-based half-open Region.
func ParseRegionString(region string) (result Region, err error) {
	if len(region) == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty region string")
		return
	}
	colonPos := strings.IndexByte(region, ':')
	if colonPos <= 0 {
		err = fmt.Errorf("interval.ParseRegionString: missing contig ID in %q", region)
		return
	}
	result.Chrom = region[0:colonPos]
	rangeStr := region[colonPos+1:]
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		var pos1 int
		if pos1, err = strconv.Atoi(rangeStr); err != nil {
			return
		}
		if pos1 <= 0 {
			err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr)
			return
		}
		result.Start = pos1 - 1
		result.End = pos1
		return
	}
	var start1, end0 int
	if start1, err = strconv.Atoi(rangeStr[:dashPos]); err != nil {
		return
	}
	if start1 <= 0 {
		err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr[:dashPos])
		return
	}
	if end0, err = strconv.Atoi(rangeStr[dashPos+1:]); err != nil {
		return
	}
	if end0 < start1 {
		err = fmt.Errorf("interval.ParseRegionString: invalid range string %v", rangeStr)
		return
	}
	result.Start = start1 - 1
	result.End = end0
	return
}
