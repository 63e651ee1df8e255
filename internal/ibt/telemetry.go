package ibt

// Telemetry holds extracted channels as parallel float64 columns, one
// value per sample record. All columns have equal length.
type Telemetry struct {
	columns map[string][]float64
	n       int
}

// NewTelemetry builds a Telemetry from pre-extracted columns. Columns of
// mismatched length are truncated to the shortest; intended for tests
// and for the lap splitter.
func NewTelemetry(columns map[string][]float64) *Telemetry {
	n := -1
	for _, col := range columns {
		if n < 0 || len(col) < n {
			n = len(col)
		}
	}
	if n < 0 {
		n = 0
	}
	trimmed := make(map[string][]float64, len(columns))
	for name, col := range columns {
		trimmed[name] = col[:n]
	}
	return &Telemetry{columns: trimmed, n: n}
}

// Len returns the number of sample records.
func (t *Telemetry) Len() int { return t.n }

// Channel returns the named column and whether it was extracted.
func (t *Telemetry) Channel(name string) ([]float64, bool) {
	col, ok := t.columns[name]
	return col, ok
}

// Has reports whether the named channel was extracted.
func (t *Telemetry) Has(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// ChannelNames returns the extracted channel names in no particular order.
func (t *Telemetry) ChannelNames() []string {
	names := make([]string, 0, len(t.columns))
	for name := range t.columns {
		names = append(names, name)
	}
	return names
}

// selectRows builds a new Telemetry containing only the given row
// indices, in order. Used by the lap splitter.
func (t *Telemetry) selectRows(rows []int) *Telemetry {
	out := make(map[string][]float64, len(t.columns))
	for name, col := range t.columns {
		sub := make([]float64, len(rows))
		for i, r := range rows {
			sub[i] = col[r]
		}
		out[name] = sub
	}
	return &Telemetry{columns: out, n: len(rows)}
}
