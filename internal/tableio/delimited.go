package tableio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/leeovery/sndedup/internal/record"
)

// loadDelimited reads a CSV or TSV file. Cells load as strings; empty cells
// load as Missing. A UTF-8 or UTF-16 byte order mark selects the encoding.
func loadDelimited(path string, comma rune, comp Compression) (*record.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer f.Close()

	r, closeFn, err := decompress(bufio.NewReader(f), comp)
	if err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}
	defer closeFn()

	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.Comma = comma
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &FormatError{Path: path, Err: errors.New("file is empty (no header row)")}
		}
		return nil, classifyReadErr(path, err)
	}

	t := record.NewTable(header...)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, classifyReadErr(path, err)
		}
		cells := make([]record.Value, len(row))
		for i, s := range row {
			if s != "" {
				cells[i] = record.String(s)
			}
		}
		t.Append(cells...)
	}
	return t, nil
}

// classifyReadErr separates parse failures from underlying read failures.
func classifyReadErr(path string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &FormatError{Path: path, Err: err}
	}
	return &IOError{Path: path, Err: err}
}

func decompress(r io.Reader, comp Compression) (io.Reader, func(), error) {
	switch comp {
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return zr, func() { closeQuietly(zr) }, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		return zr, zr.Close, nil
	case CompressionLZ4:
		return lz4.NewReader(r), func() {}, nil
	default:
		return r, func() {}, nil
	}
}

// writeDelimited writes the header and every row. Missing cells are written
// as empty fields.
func writeDelimited(w io.Writer, t *record.Table, comma rune, comp Compression) error {
	out, finish, err := compress(w, comp)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(out)
	cw.Comma = comma
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	fields := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i := range fields {
			fields[i] = r.Cell(i).String()
		}
		if err := cw.Write(fields); err != nil {
			return fmt.Errorf("writing row %d: %w", r.Index, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing rows: %w", err)
	}
	return finish()
}

func compress(w io.Writer, comp Compression) (io.Writer, func() error, error) {
	switch comp {
	case CompressionGzip:
		zw := gzip.NewWriter(w)
		return zw, zw.Close, nil
	case CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, nil, fmt.Errorf("creating zstd writer: %w", err)
		}
		return zw, zw.Close, nil
	case CompressionLZ4:
		zw := lz4.NewWriter(w)
		return zw, zw.Close, nil
	default:
		return w, func() error { return nil }, nil
	}
}
