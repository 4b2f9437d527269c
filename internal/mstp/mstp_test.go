package mstp

import (
	"strings"
	"testing"

	"github.com/dmitrijs2005/minsend/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SignInRequest(t *testing.T) {
	text := strings.Join([]string{
		"REQ user-sign-in",
		"time=1703847211",
		"username=5511ca17-e592-4090-a170-35fc7426c470",
		"pin=4302",
		"",
		"Nothing",
	}, "\n")

	m, err := Parse(text)
	require.NoError(t, err)

	assert.Equal(t, TypeREQ, m.Type)
	assert.Equal(t, "user-sign-in", m.Action)
	assert.Equal(t, "1703847211", m.Header("time"))
	assert.Equal(t, "5511ca17-e592-4090-a170-35fc7426c470", m.Header("username"))
	assert.Equal(t, "4302", m.Header("pin"))
	assert.Equal(t, []string{"time", "username", "pin"}, m.Headers.Keys())
	assert.Equal(t, "Nothing", m.Body)
}

func TestParse_Variants(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		typ     Type
		action  string
		headers map[string]string
		body    string
	}{
		{name: "no headers no body", text: "RES ping", typ: TypeRES, action: "ping"},
		{name: "headers only", text: "ACK done\na=1\nb=2", typ: TypeACK, action: "done", headers: map[string]string{"a": "1", "b": "2"}},
		{name: "value keeps later equals", text: "REQ x\nq=a=b\n\n", typ: TypeREQ, action: "x", headers: map[string]string{"q": "a=b"}},
		{name: "empty value", text: "REQ x\nq=\n\nbody", typ: TypeREQ, action: "x", headers: map[string]string{"q": ""}, body: "body"},
		{name: "multiline body", text: "REQ x\n\nline1\nline2\n", typ: TypeREQ, action: "x", body: "line1\nline2\n"},
		{name: "crlf header lines", text: "REQ x\r\nk=v\r\n\r\nbody", typ: TypeREQ, action: "x", headers: map[string]string{"k": "v"}, body: "body"},
		{name: "last write wins", text: "REQ x\nk=1\nk=2", typ: TypeREQ, action: "x", headers: map[string]string{"k": "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, m.Type)
			assert.Equal(t, tt.action, m.Action)
			assert.Equal(t, len(tt.headers), m.Headers.Len())
			for k, v := range tt.headers {
				got, ok := m.Headers.Get(k)
				assert.True(t, ok, "missing header %q", k)
				assert.Equal(t, v, got)
			}
			assert.Equal(t, tt.body, m.Body)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "type only", text: "REQ"},
		{name: "three tokens", text: "REQ a b"},
		{name: "unknown type", text: "GET file"},
		{name: "lower case type", text: "req file"},
		{name: "header without equals", text: "REQ x\nnoequals\n\nbody"},
		{name: "header with empty key", text: "REQ x\n=v"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrMalformedFrame)
		})
	}
}

func TestMarshal_Layout(t *testing.T) {
	m := New(TypeRES, "user-info")
	m.Headers.Set("username", "u1")
	m.Headers.Set("pin", "1234")
	m.Body = "hi"

	assert.Equal(t, "RES user-info\nusername=u1\npin=1234\n\nhi", m.Marshal())
}

func TestHeaders_OverwriteKeepsPosition(t *testing.T) {
	var h Headers
	h.Set("a", "1")
	h.Set("b", "2")
	h.Set("a", "3")

	assert.Equal(t, []string{"a", "b"}, h.Keys())
	v, ok := h.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	_, ok = h.Get("missing")
	assert.False(t, ok)
}

func TestRoundTrip(t *testing.T) {
	build := func(typ Type, action string, kv []string, body string) *Message {
		m := New(typ, action)
		for i := 0; i+1 < len(kv); i += 2 {
			m.Headers.Set(kv[i], kv[i+1])
		}
		m.Body = body
		return m
	}

	msgs := []*Message{
		build(TypeREQ, "list", nil, ""),
		build(TypeRES, "user-info", []string{"username", "abc", "pin", "0042"}, ""),
		build(TypeACK, "x", []string{"k", "v=w"}, "body"),
		build(TypeREQ, "broadcast", []string{"kind", "text"}, "hello\nworld"),
		build(TypeREQ, "broadcast", nil, "\nstarts with a blank line\n"),
		build(TypeRES, "history", []string{"status", "ok"}, "a\n\nb\n"),
	}

	for _, m := range msgs {
		got, err := Parse(m.Marshal())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}

func TestIsRequest(t *testing.T) {
	assert.True(t, IsRequest("REQ user-info\n\n"))
	assert.False(t, IsRequest("RES user-info"))
	assert.False(t, IsRequest("LIST"))
	assert.False(t, IsRequest("REQUEST"))
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "REQ", TypeREQ.String())
	assert.Equal(t, "RES", TypeRES.String())
	assert.Equal(t, "ACK", TypeACK.String())
	assert.Equal(t, "Type(7)", Type(7).String())
}
