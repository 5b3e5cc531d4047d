package cli

import (
	"fmt"
	"io"

	toon "github.com/toon-format/toon-go"

	"github.com/leeovery/sndedup/internal/engine"
)

// ToonFormatter formats output in TOON (Token-Oriented Object Notation).
type ToonFormatter struct{}

// FormatSummary renders the run as a single summary object.
func (f *ToonFormatter) FormatSummary(w io.Writer, s engine.Summary) error {
	doc := toon.NewObject(
		toon.Field{Key: "summary", Value: toon.NewObject(
			toon.Field{Key: "status", Value: "ok"},
			toon.Field{Key: "input", Value: s.Input},
			toon.Field{Key: "output", Value: s.Output},
			toon.Field{Key: "key_column", Value: s.Key},
			toon.Field{Key: "score_column", Value: s.Score},
			toon.Field{Key: "rows_read", Value: s.RowsRead},
			toon.Field{Key: "rows_kept", Value: s.RowsKept},
			toon.Field{Key: "rows_removed", Value: s.Removed},
			toon.Field{Key: "groups", Value: s.Groups},
			toon.Field{Key: "scores_coerced", Value: s.Coerced},
			toon.Field{Key: "elapsed_seconds", Value: seconds(s)},
		)},
	)
	result, err := toon.MarshalString(doc)
	if err != nil {
		return fmt.Errorf("toon marshal error: %w", err)
	}
	_, err = fmt.Fprintln(w, result)
	return err
}

// FormatNotice renders msg as a notice object.
func (f *ToonFormatter) FormatNotice(w io.Writer, msg string) error {
	doc := toon.NewObject(
		toon.Field{Key: "notice", Value: toon.NewObject(
			toon.Field{Key: "status", Value: "cancelled"},
			toon.Field{Key: "message", Value: msg},
		)},
	)
	result, err := toon.MarshalString(doc)
	if err != nil {
		return fmt.Errorf("toon marshal error: %w", err)
	}
	_, err = fmt.Fprintln(w, result)
	return err
}
