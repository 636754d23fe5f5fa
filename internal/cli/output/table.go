package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// maxInlineItems is how many slice elements a cell lists before it
// collapses to a count.
const maxInlineItems = 4

// TableFormatter formats data as an aligned table.
type TableFormatter struct {
	Wide      bool
	NoHeaders bool
}

// Format renders a Table, a slice of structs, a map, or a single struct.
// Anything else falls back to JSON.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}
	switch t := data.(type) {
	case *Table:
		return t.RenderWithOptions(w, f.NoHeaders)
	case Table:
		return t.RenderWithOptions(w, f.NoHeaders)
	}

	table, err := toTable(data, f.Wide)
	if err != nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	return table.RenderWithOptions(w, f.NoHeaders)
}

func toTable(data any, wide bool) (*Table, error) {
	v := reflect.Indirect(reflect.ValueOf(data))
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return sliceToTable(v, wide)
	case reflect.Map:
		return mapToTable(v), nil
	case reflect.Struct:
		return structToTable(v, wide), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", v.Kind())
	}
}

// column is one visible struct field.
type column struct {
	name  string
	index int
}

// columns lists the exported fields of t that are shown in the given mode.
func columns(t reflect.Type, wide bool) []column {
	var out []column
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("table")
		if tag == "-" || (strings.Contains(tag, "wide") && !wide) {
			continue
		}
		name := field.Name
		if j := field.Tag.Get("json"); j != "" {
			if n, _, _ := strings.Cut(j, ","); n != "" && n != "-" {
				name = n
			}
		}
		out = append(out, column{name: name, index: i})
	}
	return out
}

func sliceToTable(v reflect.Value, wide bool) (*Table, error) {
	if v.Len() == 0 {
		return &Table{}, nil
	}
	elemType := v.Type().Elem()
	if elemType.Kind() == reflect.Ptr {
		elemType = elemType.Elem()
	}
	if elemType.Kind() != reflect.Struct {
		table := &Table{Headers: []string{"VALUE"}}
		for i := 0; i < v.Len(); i++ {
			table.AddRow(formatValue(v.Index(i)))
		}
		return table, nil
	}

	cols := columns(elemType, wide)
	table := &Table{}
	for _, c := range cols {
		table.Headers = append(table.Headers, strings.ToUpper(toSnakeCase(c.name)))
	}
	for i := 0; i < v.Len(); i++ {
		elem := reflect.Indirect(v.Index(i))
		row := make([]string, len(cols))
		if elem.IsValid() {
			for j, c := range cols {
				row[j] = formatValue(elem.Field(c.index))
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// mapToTable renders a map as sorted key-value rows.
func mapToTable(v reflect.Value) *Table {
	table := &Table{Headers: []string{"KEY", "VALUE"}}
	iter := v.MapRange()
	for iter.Next() {
		table.AddRow(formatValue(iter.Key()), formatValue(iter.Value()))
	}
	sort.Slice(table.Rows, func(i, j int) bool { return table.Rows[i][0] < table.Rows[j][0] })
	return table
}

func structToTable(v reflect.Value, wide bool) *Table {
	table := &Table{Headers: []string{"FIELD", "VALUE"}}
	for _, c := range columns(v.Type(), wide) {
		table.AddRow(c.name, formatValue(v.Field(c.index)))
	}
	return table
}

var timeType = reflect.TypeOf(time.Time{})

// formatValue renders one cell.
func formatValue(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "-"
		}
		v = v.Elem()
	}

	if v.Type() == timeType {
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return "-"
		}
		return t.Local().Format("2006-01-02 15:04:05")
	}
	if s, ok := v.Interface().(fmt.Stringer); ok && v.Kind() != reflect.Slice {
		return s.String()
	}

	switch v.Kind() {
	case reflect.String:
		if v.String() == "" {
			return "-"
		}
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("%d", v.Uint())
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if f == float64(int64(f)) {
			return fmt.Sprintf("%d", int64(f))
		}
		return fmt.Sprintf("%.2f", f)
	case reflect.Bool:
		return fmt.Sprintf("%t", v.Bool())
	case reflect.Slice, reflect.Array:
		return formatList(v)
	case reflect.Map:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// formatList joins short slices inline and counts long ones.
func formatList(v reflect.Value) string {
	n := v.Len()
	if n == 0 {
		return "-"
	}
	if n > maxInlineItems {
		return fmt.Sprintf("[%d items]", n)
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = formatValue(v.Index(i))
	}
	return strings.Join(parts, ",")
}

// toSnakeCase converts CamelCase to Snake_Case. Already snake names pass
// through unchanged.
func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Table is pre-built tabular output.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table with headers.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table, optionally without the header row.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// SetHeaders replaces the header row.
func (t *Table) SetHeaders(headers ...string) {
	t.Headers = headers
}
