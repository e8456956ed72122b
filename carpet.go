package carpet

import (
	"errors"
	"io"

	"github.com/parquet-go/parquet-go"
)

// Writer writes a typed sequence of records to a Parquet file: the
// schema is derived once from T (C1+C2), then each record is shredded
// into column values by the dispatch engine (C4) and handed to the
// underlying engine's writer.
type Writer[T any] struct {
	model  *Model
	schema *parquet.Schema
	rc     *rowConsumer
	pw     *parquet.Writer
	rows   [1]parquet.Row
}

// NewWriter derives the record model from T by reflection and opens a
// writer session on output.
func NewWriter[T any](output io.Writer, opts ...Option) (*Writer[T], error) {
	cfg := DefaultConfig().Apply(opts...)
	var zero T
	model, err := ModelOf(&zero, reflectConfigFrom(cfg))
	if err != nil {
		return nil, err
	}
	return newWriter[T](output, model, cfg)
}

// NewModelWriter opens a writer session for a model built with the
// explicit RecordBuilder API; records are passed as the values the
// model's accessors understand.
func NewModelWriter(output io.Writer, model *Model, cfg *Config) (*Writer[any], error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return newWriter[any](output, model, cfg)
}

func newWriter[T any](output io.Writer, model *Model, cfg *Config) (*Writer[T], error) {
	schema, err := BuildSchema(model, cfg)
	if err != nil {
		return nil, err
	}
	return &Writer[T]{
		model:  model,
		schema: schema,
		rc:     NewRowConsumer(model, schema, cfg),
		pw:     parquet.NewWriter(output, schema),
	}, nil
}

// Schema returns the derived Parquet schema.
func (w *Writer[T]) Schema() *parquet.Schema { return w.schema }

// Write shreds and appends records, one row each, in order.
func (w *Writer[T]) Write(records ...T) error {
	for i := range records {
		row, err := w.rc.Row(records[i])
		if err != nil {
			return err
		}
		w.rows[0] = row
		if _, err := w.pw.WriteRows(w.rows[:]); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes buffered pages and writes the file footer.
func (w *Writer[T]) Close() error { return w.pw.Close() }

// Reader reads a typed sequence of records from a Parquet file: the
// file schema is projected against T's model (C2+C6), validated (C3),
// and each row is assembled by the materializer (C5).
type Reader[T any] struct {
	file   *parquet.File
	plan   *BindingPlan
	mat    *Materializer
	conv   parquet.Conversion
	groups []parquet.RowGroup
	gi     int
	rows   parquet.Rows
	buf    [1]parquet.Row
}

// NewReader derives the record model from T by reflection, opens the
// file, and prepares a read session. Projection errors the
// configuration does not suppress are returned here, before any row is
// read.
func NewReader[T any](input io.ReaderAt, size int64, opts ...Option) (*Reader[T], error) {
	cfg := DefaultConfig().Apply(opts...)
	var zero T
	model, err := ModelOf(&zero, reflectConfigFrom(cfg))
	if err != nil {
		return nil, err
	}
	return newReader[T](input, size, model, cfg)
}

// NewModelReader prepares a read session for an explicitly built model.
// Records are surfaced as the model constructor's output, or as
// map[string]any dictionaries when the model has no constructor.
func NewModelReader(input io.ReaderAt, size int64, model *Model, cfg *Config) (*Reader[any], error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return newReader[any](input, size, model, cfg)
}

func newReader[T any](input io.ReaderAt, size int64, model *Model, cfg *Config) (*Reader[T], error) {
	f, err := parquet.OpenFile(input, size)
	if err != nil {
		return nil, err
	}
	plan, errs := ProjectSchema(model, f.Schema(), nil, cfg)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	// With no bound columns there is nothing to project; rows are read
	// against the file schema and every slot keeps its default.
	var conv parquet.Conversion
	if len(plan.Leaves) > 0 {
		conv, err = parquet.Convert(plan.ProjectedSchema, f.Schema())
		if err != nil {
			return nil, err
		}
	}
	mat, err := NewMaterializer(plan, cfg)
	if err != nil {
		return nil, err
	}
	return &Reader[T]{
		file:   f,
		plan:   plan,
		mat:    mat,
		conv:   conv,
		groups: f.RowGroups(),
	}, nil
}

// Schema returns the projected schema this session decodes.
func (r *Reader[T]) Schema() *parquet.Schema { return r.plan.ProjectedSchema }

// Plan returns the session's binding plan.
func (r *Reader[T]) Plan() *BindingPlan { return r.plan }

// Read returns the next record, or io.EOF after the last row.
func (r *Reader[T]) Read() (T, error) {
	var zero T
	for {
		if r.rows == nil {
			if r.gi >= len(r.groups) {
				return zero, io.EOF
			}
			rg := r.groups[r.gi]
			if r.conv != nil {
				rg = parquet.ConvertRowGroup(rg, r.conv)
			}
			r.gi++
			r.rows = rg.Rows()
		}
		n, err := r.rows.ReadRows(r.buf[:])
		if n > 0 {
			rec, merr := r.mat.Materialize(r.buf[0])
			if merr != nil {
				return zero, merr
			}
			out, ok := rec.(T)
			if !ok {
				return zero, &InternalError{Detail: "materialized record has unexpected type"}
			}
			return out, nil
		}
		if err != nil && err != io.EOF {
			return zero, err
		}
		r.rows.Close()
		r.rows = nil
	}
}

// ReadAll drains the remaining records.
func (r *Reader[T]) ReadAll() ([]T, error) {
	var out []T
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// Close releases the session's row readers.
func (r *Reader[T]) Close() error {
	if r.rows != nil {
		err := r.rows.Close()
		r.rows = nil
		return err
	}
	return nil
}

// reflectConfigFrom projects the session configuration onto the
// reflection front-end's knobs.
func reflectConfigFrom(cfg *Config) *ReflectConfig {
	rc := DefaultReflectConfig()
	rc.TimeUnit = cfg.TimeUnit
	rc.DecimalDefault = cfg.DecimalDefault
	return rc
}
