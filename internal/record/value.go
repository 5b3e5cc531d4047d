// Package record defines the in-memory table model shared by the loaders,
// the normalizer, the deduplication engine and the writers.
package record

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the type of a cell value.
type Kind uint8

const (
	// KindMissing is the missing marker: an empty cell or a score that
	// could not be parsed.
	KindMissing Kind = iota
	KindBool
	KindNumber
	KindTime
	KindString
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single scalar cell. The zero Value is Missing.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	t    time.Time
}

// Missing returns the missing marker.
func Missing() Value { return Value{} }

// String returns a string cell.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric cell.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a boolean cell.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Time returns a date/time cell.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Kind reports the cell's kind.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v is the missing marker.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Str returns the payload of a string cell and "" for every other kind.
func (v Value) Str() string { return v.str }

// Num returns the payload of a numeric cell.
func (v Value) Num() (float64, bool) { return v.num, v.kind == KindNumber }

// BoolVal returns the payload of a boolean cell.
func (v Value) BoolVal() (bool, bool) { return v.b, v.kind == KindBool }

// TimeVal returns the payload of a time cell.
func (v Value) TimeVal() (time.Time, bool) { return v.t, v.kind == KindTime }

// Equal reports exact equality: same kind and same payload. Strings are
// compared byte for byte, with no trimming or case folding.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindMissing:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.num == o.num || (math.IsNaN(v.num) && math.IsNaN(o.num))
	case KindTime:
		return v.t.Equal(o.t)
	default:
		return v.str == o.str
	}
}

// Key returns a comparable value usable as a map key. Two values have the
// same Key exactly when Equal reports true.
func (v Value) Key() any {
	switch v.kind {
	case KindMissing:
		return missingKey{}
	case KindBool:
		return v.b
	case KindNumber:
		if v.num == 0 {
			// +0 and -0 are Equal.
			return float64(0)
		}
		if math.IsNaN(v.num) {
			return nanKey{}
		}
		return v.num
	case KindTime:
		return timeKey{sec: v.t.Unix(), nsec: int32(v.t.Nanosecond())}
	default:
		return stringKey(v.str)
	}
}

type (
	missingKey struct{}
	nanKey     struct{}
	timeKey    struct {
		sec  int64
		nsec int32
	}
	stringKey string
)

// String renders the value the way it is written to delimited files.
// Missing renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindMissing:
		return ""
	case KindBool:
		if v.b {
			return "TRUE"
		}
		return "FALSE"
	case KindNumber:
		return FormatNumber(v.num)
	case KindTime:
		if v.t.Hour() == 0 && v.t.Minute() == 0 && v.t.Second() == 0 && v.t.Nanosecond() == 0 {
			return v.t.Format("2006-01-02")
		}
		return v.t.Format("2006-01-02 15:04:05")
	default:
		return v.str
	}
}

// FormatNumber renders f without a trailing ".0" for integral values.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Compare orders two values: Missing < Bool < Number < Time < String, and
// by natural order within a kind. It returns -1, 0 or +1.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	switch a.kind {
	case KindMissing:
		return 0
	case KindBool:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		default:
			return 1
		}
	case KindNumber:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		default:
			return 0
		}
	case KindTime:
		return a.t.Compare(b.t)
	default:
		return strings.Compare(a.str, b.str)
	}
}
