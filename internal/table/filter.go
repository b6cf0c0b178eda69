package table

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrBadQuery = errors.New("bad table query")

// Filter is a structured filter: column key -> allowed values.
type Filter map[string][]string

// Range is an inclusive numeric bound on one column. Either side may be nil.
type Range struct {
	Column string   `json:"column"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// ParseFilter parses "col1:v1,v2;col2:v3". Keys are lower-cased, blank
// values are dropped. A column may end up with an empty list, which
// matches everything.
func ParseFilter(s string) (Filter, error) {
	f := Filter{}
	for _, seg := range strings.Split(s, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		key, vals, ok := strings.Cut(seg, ":")
		key = strings.ToLower(strings.TrimSpace(key))
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: filter segment %q", ErrBadQuery, seg)
		}
		list := f[key]
		for _, v := range strings.Split(vals, ",") {
			if v = strings.TrimSpace(v); v != "" {
				list = append(list, v)
			}
		}
		if list == nil {
			list = []string{}
		}
		f[key] = list
	}
	return f, nil
}

// ParseRange parses "col:min..max"; "col:..max" and "col:min.." are allowed.
func ParseRange(s string) (Range, error) {
	key, bounds, ok := strings.Cut(strings.TrimSpace(s), ":")
	key = strings.ToLower(strings.TrimSpace(key))
	if !ok || key == "" {
		return Range{}, fmt.Errorf("%w: range %q", ErrBadQuery, s)
	}
	lo, hi, ok := strings.Cut(bounds, "..")
	if !ok {
		return Range{}, fmt.Errorf("%w: range %q needs min..max", ErrBadQuery, s)
	}
	r := Range{Column: key}
	var err error
	if r.Min, err = parseBound(lo); err != nil {
		return Range{}, err
	}
	if r.Max, err = parseBound(hi); err != nil {
		return Range{}, err
	}
	return r, nil
}

func parseBound(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: range bound %q", ErrBadQuery, s)
	}
	return &v, nil
}

func (r Range) contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// Structured reports whether q uses the structured mode, which overrides
// free text.
func (q Query) Structured() bool {
	return len(q.Filter) > 0 || len(q.Ranges) > 0
}

// Match builds the row predicate for q.
func (t *Table[T]) Match(q Query) func(T) bool {
	if q.Structured() {
		return t.matchStructured(q)
	}
	text := strings.ToLower(strings.TrimSpace(q.Text))
	if text == "" {
		return func(T) bool { return true }
	}
	return func(row T) bool {
		for _, c := range t.columns {
			if c.Searchable && strings.Contains(strings.ToLower(c.Value(row)), text) {
				return true
			}
		}
		return false
	}
}

func (t *Table[T]) matchStructured(q Query) func(T) bool {
	type allow struct {
		col  Column[T]
		vals map[string]struct{}
	}
	var allows []allow
	for key, vals := range q.Filter {
		c, ok := t.Column(key)
		if !ok || len(vals) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(vals))
		for _, v := range vals {
			set[strings.ToLower(v)] = struct{}{}
		}
		allows = append(allows, allow{col: c, vals: set})
	}

	type bound struct {
		col Column[T]
		r   Range
	}
	var bounds []bound
	for _, r := range q.Ranges {
		c, ok := t.Column(r.Column)
		if !ok || c.Number == nil {
			continue
		}
		bounds = append(bounds, bound{col: c, r: r})
	}

	return func(row T) bool {
		for _, a := range allows {
			if _, ok := a.vals[strings.ToLower(strings.TrimSpace(a.col.Value(row)))]; !ok {
				return false
			}
		}
		for _, b := range bounds {
			v, ok := b.col.Number(row)
			if !ok || !b.r.contains(v) {
				return false
			}
		}
		return true
	}
}

// Filter returns the rows matching q, in input order.
func (t *Table[T]) Filter(rows []T, q Query) []T {
	match := t.Match(q)
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if match(r) {
			out = append(out, r)
		}
	}
	return out
}
