// Package tableio loads tables from spreadsheet, delimited and SQLite files
// and writes them back atomically.
package tableio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/leeovery/sndedup/internal/record"
)

// Format is a supported table file format.
type Format string

const (
	FormatXLSX   Format = "xlsx"
	FormatXLS    Format = "xls"
	FormatCSV    Format = "csv"
	FormatTSV    Format = "tsv"
	FormatSQLite Format = "sqlite"
)

// Compression applies to delimited formats only.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gz"
	CompressionZstd Compression = "zst"
	CompressionLZ4  Compression = "lz4"
)

// DefaultExt is the extension of derived output files.
const DefaultExt = ".xlsx"

// DefaultTable is the SQLite table read and written.
const DefaultTable = "records"

const defaultLockTimeout = 5 * time.Second

var formatExts = map[string]Format{
	".xlsx":    FormatXLSX,
	".xlsm":    FormatXLSX,
	".xls":     FormatXLS,
	".csv":     FormatCSV,
	".tsv":     FormatTSV,
	".db":      FormatSQLite,
	".sqlite":  FormatSQLite,
	".sqlite3": FormatSQLite,
}

var compressionExts = map[string]Compression{
	".gz":  CompressionGzip,
	".zst": CompressionZstd,
	".lz4": CompressionLZ4,
}

// Filter is a named group of file extensions offered by a file chooser.
type Filter struct {
	Name       string
	Extensions []string
}

// Filters returns the file type filters for input selection, spreadsheets
// first.
func Filters() []Filter {
	return []Filter{
		{Name: "Excel files", Extensions: []string{".xlsx", ".xls", ".xlsm"}},
		{Name: "Delimited text", Extensions: []string{".csv", ".tsv"}},
		{Name: "SQLite databases", Extensions: []string{".db", ".sqlite", ".sqlite3"}},
	}
}

type options struct {
	table       string
	logger      *zap.Logger
	lockTimeout time.Duration
}

// Option configures Load and Save.
type Option func(*options)

// WithTable sets the SQLite table name.
func WithTable(name string) Option {
	return func(o *options) {
		if name != "" {
			o.table = name
		}
	}
}

// WithLogger routes debug output of file operations to l.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLockTimeout bounds how long Save waits for the output lock.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.lockTimeout = d
		}
	}
}

func newOptions(opts []Option) options {
	o := options{table: DefaultTable, logger: zap.NewNop(), lockTimeout: defaultLockTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Detect returns the format and compression implied by path's extension.
func Detect(path string) (Format, Compression, error) {
	name := strings.ToLower(filepath.Base(path))
	comp := CompressionNone
	if c, ok := compressionExts[filepath.Ext(name)]; ok {
		comp = c
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	ext := filepath.Ext(name)
	f, ok := formatExts[ext]
	if !ok {
		if ext == "" {
			return "", "", errors.New("file has no extension")
		}
		return "", "", fmt.Errorf("unsupported file type %q", ext)
	}
	if comp != CompressionNone && f != FormatCSV && f != FormatTSV {
		return "", "", fmt.Errorf("compression is only supported for csv and tsv, not %q", ext)
	}
	return f, comp, nil
}

// Load reads the first sheet (or the SQLite table) at path into a table.
// The first row is the header. Rows are never dropped and column order is
// kept. Errors are *IOError or *FormatError.
func Load(path string, opts ...Option) (*record.Table, error) {
	o := newOptions(opts)
	format, comp, err := Detect(path)
	if err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &IOError{Path: path, Err: err}
	}

	o.logger.Debug("loading table", zap.String("path", path), zap.String("format", string(format)))

	var t *record.Table
	switch format {
	case FormatXLSX:
		t, err = loadXLSX(path)
	case FormatXLS:
		t, err = loadXLS(path)
	case FormatCSV, FormatTSV:
		t, err = loadDelimited(path, delimiter(format), comp)
	case FormatSQLite:
		t, err = loadSQLite(path, o.table)
	}
	if err != nil {
		return nil, err
	}

	o.logger.Debug("loaded table",
		zap.Int("columns", len(t.Columns)),
		zap.Int("rows", t.Len()),
	)
	return t, nil
}

// Save writes t to path in the format implied by its extension. The file is
// written to a temp file and renamed into place while an advisory lock is
// held, so a failed Save leaves no partial output. Errors are *WriteError.
func Save(path string, t *record.Table, opts ...Option) error {
	o := newOptions(opts)
	format, comp, err := Detect(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if format == FormatXLS {
		return &WriteError{Path: path, Err: errors.New("writing legacy .xls files is not supported")}
	}

	unlock, err := acquireLock(path, o.lockTimeout, o.logger)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer unlock()

	err = writeAtomic(path, func(tmp *os.File) error {
		switch format {
		case FormatXLSX:
			return writeXLSX(tmp, t)
		case FormatCSV, FormatTSV:
			return writeDelimited(tmp, t, delimiter(format), comp)
		case FormatSQLite:
			return writeSQLite(tmp.Name(), t, o.table)
		}
		return fmt.Errorf("unsupported format %q", format)
	})
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}

	o.logger.Debug("saved table", zap.String("path", path), zap.Int("rows", t.Len()))
	return nil
}

// OutputPath derives the output file for input: same directory, input base
// name plus suffix, and ext (DefaultExt when empty). Compression and format
// extensions are both stripped from the base name.
func OutputPath(input, suffix, ext string) string {
	if ext == "" {
		ext = DefaultExt
	}
	dir := filepath.Dir(input)
	base := filepath.Base(input)
	if _, ok := compressionExts[strings.ToLower(filepath.Ext(base))]; ok {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+suffix+ext)
}

// SameExt returns the writable extension matching input's format, keeping
// any compression suffix. Legacy .xls maps to DefaultExt.
func SameExt(input string) string {
	format, comp, err := Detect(input)
	if err != nil || format == FormatXLS {
		return DefaultExt
	}
	base := filepath.Base(input)
	ext := ""
	if comp != CompressionNone {
		ext = filepath.Ext(base)
		base = strings.TrimSuffix(base, ext)
	}
	return strings.ToLower(filepath.Ext(base)) + strings.ToLower(ext)
}

// ExtFor returns the extension for a configured output format name.
func ExtFor(input, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "xlsx":
		return DefaultExt, nil
	case "csv":
		return ".csv", nil
	case "tsv":
		return ".tsv", nil
	case "sqlite":
		return ".sqlite", nil
	case "same":
		return SameExt(input), nil
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}

func delimiter(f Format) rune {
	if f == FormatTSV {
		return '\t'
	}
	return ','
}

// closeQuietly closes c, ignoring the error. Used on read paths only.
func closeQuietly(c io.Closer) {
	_ = c.Close()
}
