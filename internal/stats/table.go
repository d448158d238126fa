package stats

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"genera/internal/model"
)

var ErrShapeMismatch = errors.New("history tables differ in shape")

// Table is a history: one row of statistics per sampled generation.
type Table struct {
	Columns     []string    `json:"columns"`
	Generations []int       `json:"generations"`
	Rows        [][]float64 `json:"rows"`
}

func NewTable(columns []string) *Table {
	return &Table{Columns: slices.Clone(columns)}
}

func (t *Table) Len() int { return len(t.Rows) }

func (t *Table) Append(generation int, row []float64) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d values for %d columns", len(row), len(t.Columns))
	}
	t.Generations = append(t.Generations, generation)
	t.Rows = append(t.Rows, slices.Clone(row))
	return nil
}

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]float64, bool) {
	k := slices.Index(t.Columns, name)
	if k < 0 {
		return nil, false
	}
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[k]
	}
	return out, true
}

func (t *Table) Last() ([]float64, bool) {
	if len(t.Rows) == 0 {
		return nil, false
	}
	return t.Rows[len(t.Rows)-1], true
}

// SameColumns reports whether t can be extended with rows of columns.
func (t *Table) SameColumns(columns []string) bool {
	return slices.Equal(t.Columns, columns)
}

func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"generation"}, t.Columns...)); err != nil {
		return err
	}
	for i, row := range t.Rows {
		rec := make([]string, 0, len(row)+1)
		rec = append(rec, strconv.Itoa(t.Generations[i]))
		for _, v := range row {
			rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("history csv is empty")
		}
		return nil, err
	}
	if len(header) < 1 || header[0] != "generation" {
		return nil, fmt.Errorf("history csv must start with a generation column")
	}
	t := NewTable(header[1:])
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		gen, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("parse generation %q: %w", rec[0], err)
		}
		row := make([]float64, len(rec)-1)
		for k, field := range rec[1:] {
			if row[k], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("parse %s at generation %d: %w", t.Columns[k], gen, err)
			}
		}
		if err := t.Append(gen, row); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// Record converts t into a persistent history record.
func (t *Table) Record(runID string) model.HistoryRecord {
	return model.HistoryRecord{
		RunID:       runID,
		Columns:     slices.Clone(t.Columns),
		Generations: slices.Clone(t.Generations),
		Rows:        t.Rows,
	}
}

func FromRecord(rec model.HistoryRecord) *Table {
	return &Table{Columns: rec.Columns, Generations: rec.Generations, Rows: rec.Rows}
}

// Mean averages tables of identical shape cell by cell.
func Mean(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, errors.New("no tables to average")
	}
	first := tables[0]
	out := NewTable(first.Columns)
	out.Generations = slices.Clone(first.Generations)
	out.Rows = make([][]float64, len(first.Rows))
	for i, row := range first.Rows {
		out.Rows[i] = slices.Clone(row)
	}
	for _, t := range tables[1:] {
		if !t.SameColumns(first.Columns) || !slices.Equal(t.Generations, first.Generations) {
			return nil, ErrShapeMismatch
		}
		for i, row := range t.Rows {
			floats.Add(out.Rows[i], row)
		}
	}
	for _, row := range out.Rows {
		floats.Scale(1/float64(len(tables)), row)
	}
	return out, nil
}
