package bitmap

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrParse marks a record that does not follow the "rows cols v..." format.
var ErrParse = errors.New("bitmap: malformed record")

func isDelimiter(r rune) bool {
	switch r {
	case ' ', '\t', ',', '\r', '\n':
		return true
	}
	return false
}

// Tokenize splits a record on spaces, tabs and commas.
func Tokenize(line string) []string {
	return strings.FieldsFunc(line, isDelimiter)
}

// FromTokens decodes "rows cols v_1_1 ... v_rows_cols" from the head of tokens
// and returns the tokens that follow the last pixel value.
func FromTokens(tokens []string) (*Bitmap, []string, error) {
	if len(tokens) < 2 {
		return nil, nil, errors.Wrap(ErrParse, "missing row and column count")
	}
	rows, err := strconv.Atoi(tokens[0])
	if err != nil || rows < 0 {
		return nil, nil, errors.Wrapf(ErrParse, "bad row count %q", tokens[0])
	}
	cols, err := strconv.Atoi(tokens[1])
	if err != nil || cols < 0 {
		return nil, nil, errors.Wrapf(ErrParse, "bad column count %q", tokens[1])
	}
	// compare by division so rows*cols cannot overflow
	have := len(tokens) - 2
	if cols != 0 && rows > have/cols {
		return nil, nil, errors.Wrapf(ErrParse, "%dx%d needs more than the %d values given", rows, cols, have)
	}
	n := rows * cols

	b := &Bitmap{rows: rows, cols: cols, data: make([]float64, n)}
	for i, tok := range tokens[2 : 2+n] {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil, errors.Wrapf(ErrParse, "value %d: %q", i, tok)
		}
		b.data[i] = v
	}
	return b, tokens[2+n:], nil
}

// Parse decodes a single bitmap record. Tokens after the pixel values are ignored.
// The result is raw; callers normalize explicitly.
func Parse(line string) (*Bitmap, error) {
	b, _, err := FromTokens(Tokenize(line))
	return b, err
}
