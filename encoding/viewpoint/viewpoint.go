// Package viewpoint contains code for parsing and writing per-viewpoint
// interaction files.  A viewpoint file is tab-separated: one '#' header line
// followed by data rows whose nine columns are
//
//	Chromosome  Start  End  Gene  SumOfInteractions  RelativeDistance
//	RelativeInteractions  RbzScore  Raw
//
// The last three columns form the accumulation triple summed during target
// aggregation; the second-to-last column (rbz-score) is the thresholding
// score for derived target regions.  Row order in the file is monotonic in
// genomic position and is preserved by the reader: a record's index is its
// stable bin key.
package viewpoint

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
	"github.com/pkg/errors"
)

// Record is one viewpoint bin with named fields in on-disk column order.
type Record struct {
	Chrom string
	Start int
	End   int
	Gene  string
	// SumOfInteractions is the per-viewpoint interaction total.  When bins
	// are merged, the merged row carries the last bin's value.
	SumOfInteractions float64
	// RelativeDistance is the bin's distance to the viewpoint anchor; may be
	// negative upstream of the anchor.
	RelativeDistance int
	// The accumulation triple.
	RelativeInteractions float64
	RbzScore             float64
	Raw                  float64
}

// Read parses a viewpoint interaction stream.  The first line is the header
// comment and is returned verbatim (without the trailing newline); the
// remaining lines become Records in file order.
func Read(reader io.Reader) (header string, recs []Record, err error) {
	scanner := bufio.NewScanner(reader)
	if !scanner.Scan() {
		if err = scanner.Err(); err != nil {
			return "", nil, err
		}
		return "", nil, errors.New("viewpoint.Read: empty file")
	}
	header = strings.TrimRight(scanner.Text(), "\r\n")
	lineIdx := 1
	for scanner.Scan() {
		lineIdx++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		var rec Record
		if rec, err = parseLine(line); err != nil {
			return "", nil, errors.Wrapf(err, "viewpoint.Read: line %d", lineIdx)
		}
		recs = append(recs, rec)
	}
	if err = scanner.Err(); err != nil {
		return "", nil, err
	}
	return header, recs, nil
}

func parseLine(line string) (rec Record, err error) {
	tokens := strings.Split(line, "\t")
	if len(tokens) != 9 {
		return rec, fmt.Errorf("expected 9 columns, got %d", len(tokens))
	}
	rec.Chrom = tokens[0]
	rec.Gene = tokens[3]
	if rec.Start, err = strconv.Atoi(tokens[1]); err != nil {
		return rec, err
	}
	if rec.End, err = strconv.Atoi(tokens[2]); err != nil {
		return rec, err
	}
	if rec.End <= rec.Start {
		return rec, fmt.Errorf("invalid coordinate pair [%d, %d)", rec.Start, rec.End)
	}
	if rec.SumOfInteractions, err = strconv.ParseFloat(tokens[4], 64); err != nil {
		return rec, err
	}
	if rec.RelativeDistance, err = strconv.Atoi(tokens[5]); err != nil {
		return rec, err
	}
	if rec.RelativeInteractions, err = strconv.ParseFloat(tokens[6], 64); err != nil {
		return rec, err
	}
	if rec.RbzScore, err = strconv.ParseFloat(tokens[7], 64); err != nil {
		return rec, err
	}
	if rec.Raw, err = strconv.ParseFloat(tokens[8], 64); err != nil {
		return rec, err
	}
	return rec, nil
}

// ReadFromPath is a wrapper for Read that takes a path instead of an
// io.Reader.  Files ending in .gz are decompressed transparently.
func ReadFromPath(path string) (header string, recs []Record, err error) {
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
	return Read(reader)
}

const (
	aggregatedComment = "# Aggregated viewpoint file, created with chic-aggregate"

	aggregatedColumns    = "#Chromosome\tStart\tEnd\tGene\tSum of interactions\tRelative distance\tRaw target"
	aggregatedColumnsRbz = aggregatedColumns + "\tRbz-score"
)

// WriteAggregatedOpts controls WriteAggregated.
type WriteAggregatedOpts struct {
	// WithRbz appends the accumulated rbz-score column (paired-mode output).
	WithRbz bool
}

// WriteAggregated serializes aggregated rows: a creation comment, the source
// viewpoint header, the fixed column-header line, then one row per record.
// The accumulated raw value (and in paired mode the rbz-score) is formatted
// to width 10 with 5 decimals.
func WriteAggregated(w io.Writer, viewpointHeader string, recs []Record, opts WriteAggregatedOpts) error {
	bw := bufio.NewWriter(w)
	columns := aggregatedColumns
	if opts.WithRbz {
		columns = aggregatedColumnsRbz
	}
	if _, err := fmt.Fprintf(bw, "%s\n%s\n%s\n", aggregatedComment, viewpointHeader, columns); err != nil {
		return err
	}
	for _, rec := range recs {
		if _, err := fmt.Fprintf(bw, "%s\t%d\t%d\t%s\t%s\t%d\t%10.5f",
			rec.Chrom, rec.Start, rec.End, rec.Gene,
			strconv.FormatFloat(rec.SumOfInteractions, 'f', -1, 64),
			rec.RelativeDistance, rec.Raw); err != nil {
			return err
		}
		if opts.WithRbz {
			if _, err := fmt.Fprintf(bw, "\t%10.5f", rec.RbzScore); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteAggregatedToPath is a wrapper for WriteAggregated that creates path
// first.
func WriteAggregatedToPath(path, viewpointHeader string, recs []Record, opts WriteAggregatedOpts) (err error) {
	ctx := vcontext.Background()
	var outfile file.File
	if outfile, err = file.Create(ctx, path); err != nil {
		return err
	}
	defer func() {
		if cerr := outfile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return WriteAggregated(outfile.Writer(ctx), viewpointHeader, recs, opts)
}
