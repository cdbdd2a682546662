package wire

import (
	"fmt"
	"sort"
)

// Kind is the encoding of a single field.
type Kind uint8

const (
	Text     Kind = iota + 1 // fixed-width ASCII, zero padded, no length prefix
	Int64                    // big-endian two's complement, 8 bytes
	Int32                    // big-endian two's complement, 4 bytes
	Float64                  // big-endian IEEE-754, 8 bytes
	Tag                      // single character code
	Reserved                 // always zero
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Int64:
		return "int64"
	case Int32:
		return "int32"
	case Float64:
		return "float64"
	case Tag:
		return "tag"
	case Reserved:
		return "reserved"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// width returns the width a kind requires, or 0 when any positive width is allowed.
func (k Kind) width() int {
	switch k {
	case Int64, Float64:
		return 8
	case Int32:
		return 4
	case Tag:
		return 1
	default:
		return 0
	}
}

// Field is a field descriptor. Offset is absolute from the record base.
type Field struct {
	Name   string
	Offset int
	Width  int
	Kind   Kind
}

// End is the offset of the first byte after the field.
func (f Field) End() int { return f.Offset + f.Width }

func (f Field) String() string {
	return fmt.Sprintf("%s[%d:%d]%s", f.Name, f.Offset, f.End(), f.Kind)
}

// Layout is the immutable field table of one message kind.
type Layout struct {
	name   string
	size   int
	fields []Field
	index  map[string]int
}

// NewLayout validates fields and builds a Layout. The fields must tile
// [0, size) exactly: no overlap, no gap, nothing past the end.
func NewLayout(name string, size int, fields ...Field) (*Layout, error) {
	if size <= 0 {
		return nil, &LayoutError{Layout: name, Reason: fmt.Sprintf("record size %d must be positive", size)}
	}
	if len(fields) == 0 {
		return nil, &LayoutError{Layout: name, Reason: "no fields"}
	}

	sorted := make([]Field, len(fields))
	copy(sorted, fields)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	index := make(map[string]int, len(sorted))
	next := 0
	for i, f := range sorted {
		if f.Name == "" {
			return nil, &LayoutError{Layout: name, Field: f.String(), Reason: "empty field name"}
		}
		if _, dup := index[f.Name]; dup {
			return nil, &LayoutError{Layout: name, Field: f.Name, Reason: "duplicate field name"}
		}
		if f.Kind < Text || f.Kind > Reserved {
			return nil, &LayoutError{Layout: name, Field: f.Name, Reason: "unknown encoding " + f.Kind.String()}
		}
		if f.Width <= 0 {
			return nil, &LayoutError{Layout: name, Field: f.Name, Reason: fmt.Sprintf("width %d must be positive", f.Width)}
		}
		if w := f.Kind.width(); w != 0 && f.Width != w {
			return nil, &LayoutError{Layout: name, Field: f.Name, Reason: fmt.Sprintf("%s needs width %d, got %d", f.Kind, w, f.Width)}
		}
		if f.Offset < 0 || f.End() > size {
			return nil, &LayoutError{Layout: name, Field: f.Name, Reason: fmt.Sprintf("[%d:%d] outside record of %d bytes", f.Offset, f.End(), size)}
		}
		switch {
		case f.Offset < next:
			return nil, &LayoutError{Layout: name, Field: f.Name, Reason: fmt.Sprintf("overlaps %s", sorted[i-1].Name)}
		case f.Offset > next:
			return nil, &LayoutError{Layout: name, Field: f.Name, Reason: fmt.Sprintf("gap at [%d:%d]", next, f.Offset)}
		}
		index[f.Name] = i
		next = f.End()
	}
	if next != size {
		return nil, &LayoutError{Layout: name, Reason: fmt.Sprintf("fields cover %d of %d bytes", next, size)}
	}

	return &Layout{name: name, size: size, fields: sorted, index: index}, nil
}

// MustLayout is NewLayout for package-level tables. A bad table is a
// programming error, so it panics instead of surfacing at encode time.
func MustLayout(name string, size int, fields ...Field) *Layout {
	l, err := NewLayout(name, size, fields...)
	if err != nil {
		panic(err)
	}
	return l
}

func (l *Layout) Name() string { return l.name }

// Size is the canonical record size.
func (l *Layout) Size() int { return l.size }

// OffsetOf returns the base offset of the named field.
func (l *Layout) OffsetOf(name string) (int, bool) {
	f, ok := l.Field(name)
	return f.Offset, ok
}

func (l *Layout) Field(name string) (Field, bool) {
	i, ok := l.index[name]
	if !ok {
		return Field{}, false
	}
	return l.fields[i], true
}

// MustField resolves a field while a codec is being set up.
func (l *Layout) MustField(name string) Field {
	f, ok := l.Field(name)
	if !ok {
		panic(&LayoutError{Layout: l.name, Field: name, Reason: "no such field"})
	}
	return f
}

// Fields returns a copy of the descriptors in offset order.
func (l *Layout) Fields() []Field {
	out := make([]Field, len(l.fields))
	copy(out, l.fields)
	return out
}

// Window bounds-checks one record starting at base and returns a Region
// capped to exactly Size bytes.
func (l *Layout) Window(buf []byte, base int) (Region, error) {
	if base < 0 || base > len(buf) || len(buf)-base < l.size {
		have := len(buf) - base
		if base < 0 || have < 0 {
			have = 0
		}
		return nil, &TruncatedRecordError{Layout: l.name, Base: base, Need: l.size, Have: have}
	}
	end := base + l.size
	return Region(buf[base:end:end]), nil
}

// Batch checks that buf can hold count back-to-back records.
func (l *Layout) Batch(buf []byte, count int) error {
	if count < 0 || len(buf)/l.size < count {
		return &ShortBatchError{Layout: l.name, Count: count, Need: count * l.size, Have: len(buf)}
	}
	return nil
}

// Count is the number of whole records in buf.
func (l *Layout) Count(buf []byte) int { return len(buf) / l.size }
