// Package mstp implements MSTP, the header-based text framing used for
// structured requests and responses.
//
// A message looks like:
//
//	REQ user-sign-in
//	username=5511ca17-e592-4090-a170-35fc7426c470
//	pin=4302
//
//	optional body, any number of lines
//
// The first line carries the type (REQ, RES or ACK) and the action. Header
// lines follow up to the first blank line and are split on the first '='.
// Everything after the blank line is the body.
//
// There is no escaping: header values must not contain newlines, and keys
// must not contain '='. Values may contain '=' after the first one.
package mstp

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/minsend/internal/common"
)

// Type is the kind of an MSTP message.
type Type int

const (
	TypeREQ Type = iota
	TypeRES
	TypeACK
)

var typeNames = map[Type]string{
	TypeREQ: "REQ",
	TypeRES: "RES",
	TypeACK: "ACK",
}

var typeByName = map[string]Type{
	"REQ": TypeREQ,
	"RES": TypeRES,
	"ACK": TypeACK,
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType maps a type token to its Type.
func ParseType(s string) (Type, bool) {
	t, ok := typeByName[s]
	return t, ok
}

// Message is one parsed MSTP frame.
type Message struct {
	Type    Type
	Action  string
	Headers Headers
	Body    string
}

// New returns an empty message of the given type and action.
func New(t Type, action string) *Message {
	return &Message{Type: t, Action: action}
}

// Parse decodes text into a Message. It fails with common.ErrMalformedFrame
// if the first line is not exactly "<TYPE> <action>", if the type is
// unknown, or if a header line has no '=' or an empty key.
func Parse(text string) (*Message, error) {
	lines := strings.Split(text, "\n")

	first := strings.Fields(strings.TrimSuffix(lines[0], "\r"))
	if len(first) != 2 {
		return nil, fmt.Errorf("%w: first line %q", common.ErrMalformedFrame, lines[0])
	}

	t, ok := ParseType(first[0])
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", common.ErrMalformedFrame, first[0])
	}

	m := &Message{Type: t, Action: first[1]}

	i := 1
	for ; i < len(lines); i++ {
		line := strings.TrimSuffix(lines[i], "\r")
		if strings.TrimSpace(line) == "" {
			break
		}

		key, value, found := strings.Cut(line, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("%w: header line %q", common.ErrMalformedFrame, line)
		}
		m.Headers.Set(key, value)
	}

	// skip the blank separator
	if i+1 < len(lines) {
		m.Body = strings.Join(lines[i+1:], "\n")
	}

	return m, nil
}

// Marshal encodes m. Parse(m.Marshal()) reproduces m as long as the action
// has no whitespace and header values have no newlines.
func (m *Message) Marshal() string {
	var b strings.Builder

	b.WriteString(m.Type.String())
	b.WriteByte(' ')
	b.WriteString(m.Action)
	b.WriteByte('\n')

	for _, k := range m.Headers.Keys() {
		v, _ := m.Headers.Get(k)
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(m.Body)

	return b.String()
}

func (m *Message) String() string {
	return m.Marshal()
}

// Header is a shortcut for m.Headers.Get that drops the presence flag.
func (m *Message) Header(key string) string {
	v, _ := m.Headers.Get(key)
	return v
}

// IsRequest reports whether text starts like an MSTP request. It does not
// validate the rest of the message.
func IsRequest(text string) bool {
	return strings.HasPrefix(text, "REQ ")
}
