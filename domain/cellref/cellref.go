package cellref

import (
	"regexp"
	"strconv"
	"strings"

	"formintake/internal/errors"
)

// MaxColumn is the highest column rank a worksheet can address (XFD).
const MaxColumn = 16384

// addressPattern matches Excel-style addresses with or without $ anchors.
var addressPattern = regexp.MustCompile(`^\$?([A-Za-z]{1,3})\$?([0-9]+)$`)

// Ref is a resolved cell reference: column letters plus a 1-based row.
type Ref struct {
	Col string
	Row int
}

func (r Ref) String() string {
	return r.Col + strconv.Itoa(r.Row)
}

// Rank returns the 1-based positional rank of the reference's column.
func (r Ref) Rank() int {
	rank, _ := ColumnIndex(r.Col)
	return rank
}

// Resolve decomposes an address like "AB15" or "$AB$15" into a Ref.
// Fails with an INVALID_ADDRESS error on garbage, row 0, or columns
// beyond the worksheet limit.
func Resolve(address string) (Ref, error) {
	m := addressPattern.FindStringSubmatch(strings.TrimSpace(address))
	if m == nil {
		return Ref{}, errors.InvalidAddress(address)
	}

	col := strings.ToUpper(m[1])
	row, err := strconv.Atoi(m[2])
	if err != nil || row < 1 {
		return Ref{}, errors.InvalidAddress(address)
	}

	rank, err := ColumnIndex(col)
	if err != nil || rank > MaxColumn {
		return Ref{}, errors.InvalidAddress(address)
	}

	return Ref{Col: col, Row: row}, nil
}

// Format renders column letters and a row back into an address string.
func Format(col string, row int) string {
	return Ref{Col: strings.ToUpper(col), Row: row}.String()
}

// ColumnIndex converts column letters to their 1-based rank using
// bijective base-26: A=1 .. Z=26, AA=27.
func ColumnIndex(col string) (int, error) {
	if col == "" {
		return 0, errors.InvalidAddress(col)
	}
	rank := 0
	for _, r := range strings.ToUpper(col) {
		if r < 'A' || r > 'Z' {
			return 0, errors.InvalidAddress(col)
		}
		rank = rank*26 + int(r-'A'+1)
	}
	return rank, nil
}

// ColumnLetters is the inverse of ColumnIndex: 1 -> "A", 27 -> "AA".
func ColumnLetters(rank int) string {
	letters := ""
	for rank > 0 {
		rank--
		letters = string(rune('A'+rank%26)) + letters
		rank /= 26
	}
	return letters
}

// SortUnit selects which axis SortKey orders by.
type SortUnit int

const (
	ByRow SortUnit = iota
	ByColumn
)

// SortKey returns an integer ordering key for an address: the row number
// for ByRow, the column rank for ByColumn. Column keys compare by rank so
// "AA1" sorts after "Z1"; the letters themselves are display-only.
func SortKey(address string, unit SortUnit) (int, error) {
	ref, err := Resolve(address)
	if err != nil {
		return 0, err
	}
	if unit == ByColumn {
		return ref.Rank(), nil
	}
	return ref.Row, nil
}
