package market

import "time"

// Row maps column name to the cell value for one bar.
type Row map[string]Value

// Get returns the named cell. A column that is not present reads as missing.
func (r Row) Get(name string) Value {
	v, ok := r[name]
	if !ok {
		return Missing()
	}
	return v
}

// Has reports whether the column exists on this row, missing or not.
func (r Row) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Num returns the numeric value of the column, or def when the column is
// absent, missing, or boolean-typed false/true is not wanted as a number.
func (r Row) Num(name string, def float64) float64 {
	v := r.Get(name)
	if v.IsMissing() {
		return def
	}
	return v.Float()
}

// Flag reports whether the column holds a true flag.
func (r Row) Flag(name string) bool {
	return r.Get(name).Truthy()
}

func (r Row) clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is a time-indexed sequence of indicator rows: OHLCV plus whatever
// named columns the configured calculators produced. Rows are ordered by
// time, oldest first.
type Table struct {
	times []time.Time
	rows  []Row
}

func NewTable() *Table {
	return &Table{}
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Append adds one bar. Callers are responsible for time ordering.
func (t *Table) Append(ts time.Time, row Row) {
	if row == nil {
		row = Row{}
	}
	t.times = append(t.times, ts)
	t.rows = append(t.rows, row)
}

func (t *Table) Time(i int) time.Time { return t.times[i] }
func (t *Table) Row(i int) Row        { return t.rows[i] }

// Last returns the most recent bar, or ok=false on an empty table.
func (t *Table) Last() (ts time.Time, row Row, ok bool) {
	if t.Len() == 0 {
		return time.Time{}, nil, false
	}
	n := len(t.rows) - 1
	return t.times[n], t.rows[n], true
}

// Clone deep-copies the table so signal generation never mutates the input.
func (t *Table) Clone() *Table {
	out := &Table{
		times: make([]time.Time, len(t.times)),
		rows:  make([]Row, len(t.rows)),
	}
	copy(out.times, t.times)
	for i, r := range t.rows {
		out.rows[i] = r.clone()
	}
	return out
}
