// Package transmit defines the payloads clients relay to one another.
package transmit

// Kind tells the payload variants apart on the wire.
type Kind string

const (
	KindText Kind = "text"
	KindFile Kind = "file"
)

// Transmittable is an immutable byte payload.
type Transmittable interface {
	Kind() Kind
	// Bytes returns a copy of the payload.
	Bytes() []byte
	Len() int
}

// Text is an inline string payload.
type Text struct {
	data []byte
}

// NewText copies s into a Text payload.
func NewText(s string) Text {
	return Text{data: []byte(s)}
}

func (t Text) Kind() Kind     { return KindText }
func (t Text) Bytes() []byte  { return clone(t.data) }
func (t Text) Len() int       { return len(t.data) }
func (t Text) String() string { return string(t.data) }

// File is a named binary payload.
type File struct {
	name string
	data []byte
}

// NewFile copies data into a File payload called name.
func NewFile(name string, data []byte) File {
	return File{name: name, data: clone(data)}
}

func (f File) Kind() Kind    { return KindFile }
func (f File) Bytes() []byte { return clone(f.data) }
func (f File) Len() int      { return len(f.data) }
func (f File) Name() string  { return f.name }

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
