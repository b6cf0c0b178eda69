package table

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

type Direction int

const (
	None Direction = iota
	Asc
	Desc
)

func (d Direction) String() string {
	switch d {
	case Asc:
		return "asc"
	case Desc:
		return "desc"
	default:
		return ""
	}
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return None, fmt.Errorf("%w: sort direction %q", ErrBadQuery, s)
}

func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

type SortState struct {
	Column    string    `json:"column,omitempty"`
	Direction Direction `json:"direction"`
}

// Toggle cycles the same column unsorted -> asc -> desc -> unsorted.
// A different column starts at asc.
func (s SortState) Toggle(col string) SortState {
	col = strings.ToLower(strings.TrimSpace(col))
	if col == "" {
		return SortState{}
	}
	if !strings.EqualFold(s.Column, col) || s.Direction == None {
		return SortState{Column: col, Direction: Asc}
	}
	if s.Direction == Asc {
		return SortState{Column: col, Direction: Desc}
	}
	return SortState{}
}

// Sort returns a stably sorted copy of rows. Equal keys keep input order,
// in both directions.
func (t *Table[T]) Sort(rows []T, s SortState) []T {
	out := slices.Clone(rows)
	if s.Direction == None {
		return out
	}
	c, ok := t.Column(s.Column)
	if !ok {
		return out
	}

	compare := func(a, b T) int {
		if c.Number != nil {
			av, aok := c.Number(a)
			bv, bok := c.Number(b)
			if aok && bok {
				return cmp.Compare(av, bv)
			}
			// rows without a number sort first
			if aok != bok {
				if aok {
					return 1
				}
				return -1
			}
		}
		return strings.Compare(strings.ToLower(c.Value(a)), strings.ToLower(c.Value(b)))
	}

	if s.Direction == Desc {
		slices.SortStableFunc(out, func(a, b T) int { return compare(b, a) })
	} else {
		slices.SortStableFunc(out, compare)
	}
	return out
}
