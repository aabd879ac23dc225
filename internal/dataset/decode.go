package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/sells-group/career-mapper/internal/fetcher"
	"github.com/sells-group/career-mapper/internal/model"
)

// DecodeRows reads a statistic resource: a JSON array whose first element is a
// header and whose remaining elements are [value, regionId] pairs.
// Any structural problem aborts the whole decode with ErrMalformedDataset.
func DecodeRows(ctx context.Context, r io.Reader) ([]model.Row, error) {
	var rows []model.Row
	err := fetcher.EachArrayElement(ctx, r, func(i int, raw json.RawMessage) error {
		if i == 0 {
			return nil // column names
		}
		row, err := decodeRow(raw)
		if err != nil {
			return eris.Wrapf(err, "dataset: row %d", i)
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "dataset: decode cancelled")
		}
		if errors.Is(err, ErrMalformedDataset) {
			return nil, err
		}
		return nil, eris.Wrapf(ErrMalformedDataset, "dataset: %v", err)
	}
	return rows, nil
}

func decodeRow(raw json.RawMessage) (model.Row, error) {
	var cells []json.RawMessage
	if err := json.Unmarshal(raw, &cells); err != nil {
		return model.Row{}, eris.Wrap(ErrMalformedDataset, "not an array")
	}
	if len(cells) < 2 {
		return model.Row{}, eris.Wrapf(ErrMalformedDataset, "want 2 cells, got %d", len(cells))
	}

	id, ok := decodeRegionID(cells[1])
	if !ok {
		return model.Row{}, eris.Wrapf(ErrMalformedDataset, "region id %s", string(cells[1]))
	}
	return model.Row{Value: ParseValue(cells[0]), RegionID: id}, nil
}

func decodeRegionID(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false
		}
		return n.String(), true
	}
	return "", false
}

// ParseValue converts a value cell to float64. Strings and numbers are
// accepted. Like JavaScript parseFloat, the longest leading decimal number is
// used and trailing text is ignored, so "1,234" is 1 and "12abc" is 12.
// Anything without a leading number becomes NaN.
func ParseValue(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return math.NaN()
	}
	var text string
	switch raw[0] {
	case '"':
		if err := json.Unmarshal(raw, &text); err != nil {
			return math.NaN()
		}
	case 'n', 't', 'f', '[', '{':
		return math.NaN()
	default:
		text = string(raw)
	}
	prefix := numericPrefix(strings.TrimLeftFunc(text, unicode.IsSpace))
	if prefix == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// numericPrefix returns the longest prefix of s matching
// [+-]digits[.digits][(e|E)[+-]digits], or "" when s has no leading digits.
func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return ""
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > exp {
			i = j
		}
	}
	return s[:i]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
