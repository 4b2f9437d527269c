package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/dmitrijs2005/minsend/internal/cryptox"
	"github.com/dmitrijs2005/minsend/internal/logging"
	"github.com/dmitrijs2005/minsend/internal/mstp"
	"github.com/dmitrijs2005/minsend/internal/securechan"
	"github.com/dmitrijs2005/minsend/internal/server/journal"
	"github.com/dmitrijs2005/minsend/internal/server/registry"
	"github.com/dmitrijs2005/minsend/internal/server/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	h       *Handler
	reg     *registry.Registry
	store   storage.Store
	journal *journal.InMemoryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return newFixtureWithStore(st)
}

func newFixtureWithStore(st storage.Store) *fixture {
	f := &fixture{
		reg:     registry.New(4),
		store:   st,
		journal: journal.NewInMemoryRepository(),
	}
	f.h = NewHandler(f.reg, f.store, f.journal, cryptox.KeyDerivationRaw, logging.NewDiscardLogger())
	return f
}

type testClient struct {
	t    *testing.T
	nc   net.Conn
	conn *securechan.Conn
	done chan struct{}
}

// connect starts a session and completes the handshake and welcome.
func (f *fixture) connect(t *testing.T) *testClient {
	t.Helper()

	cli, srv := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.h.ServeConn(context.Background(), srv)
	}()

	conn, err := securechan.Handshake(cli, cryptox.KeyDerivationRaw)
	require.NoError(t, err)

	c := &testClient{t: t, nc: cli, conn: conn, done: done}
	t.Cleanup(func() {
		_ = cli.Close()
		<-done
	})

	assert.Equal(t, "OK@Welcome to the File Server.", c.recv())
	return c
}

func (c *testClient) send(s string) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteFrame([]byte(s)))
}

func (c *testClient) recv() string {
	c.t.Helper()
	b, err := c.conn.ReadFrame()
	require.NoError(c.t, err)
	return string(b)
}

func (c *testClient) do(s string) string {
	c.t.Helper()
	c.send(s)
	return c.recv()
}

func (c *testClient) upload(name string, body io.Reader, size int64) string {
	c.t.Helper()
	frame := "UPLOAD@" + name + "@" + strconv.FormatInt(size, 10)
	require.NoError(c.t, c.conn.Send([]byte(frame), body, size))
	return c.recv()
}

func (c *testClient) request(m *mstp.Message) *mstp.Message {
	c.t.Helper()
	res, err := mstp.Parse(c.do(m.Marshal()))
	require.NoError(c.t, err)
	require.Equal(c.t, mstp.TypeRES, res.Type)
	require.Equal(c.t, m.Action, res.Action)
	return res
}

func (c *testClient) waitClosed() {
	c.t.Helper()
	select {
	case <-c.done:
	case <-time.After(5 * time.Second):
		c.t.Fatal("session did not end")
	}
}

func TestSession_ListUploadDeleteScenario(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	assert.Equal(t, "OK@The server directory is empty", c.do("LIST"))
	assert.Equal(t, "OK@File uploaded successfully.", c.upload("a.txt", strings.NewReader("hello"), 5))
	assert.Equal(t, "OK@a.txt", c.do("LIST"))
	assert.Equal(t, "OK@File deleted successfully.", c.do("DELETE@a.txt"))
	assert.Equal(t, "OK@The server directory is empty", c.do("DELETE@a.txt"))
}

func TestSession_UploadByteExactWithTinyChunks(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	payload := bytes.Repeat([]byte("0123456789abcdef"), 300) // 4800 bytes, not a chunk multiple
	got := c.upload("blob.bin", iotest.OneByteReader(bytes.NewReader(payload)), int64(len(payload)))
	assert.Equal(t, "OK@File uploaded successfully.", got)

	// exactly one reply; the next frame answers the next command
	assert.Equal(t, "OK@blob.bin", c.do("LIST"))

	stored, err := f.store.Read(context.Background(), "blob.bin")
	require.NoError(t, err)
	assert.Equal(t, payload, stored)
}

func TestSession_UploadEmptyAndOverwrite(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	assert.Equal(t, "OK@File uploaded successfully.", c.upload("e", nil, 0))
	assert.Equal(t, "OK@File uploaded successfully.", c.upload("e", strings.NewReader("xyz"), 3))

	stored, err := f.store.Read(context.Background(), "e")
	require.NoError(t, err)
	assert.Equal(t, []byte("xyz"), stored)
}

func TestSession_ListMultiple(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	c.upload("b", strings.NewReader("1"), 1)
	c.upload("a", strings.NewReader("2"), 1)
	assert.Equal(t, "OK@a\nb", c.do("LIST"))
}

func TestSession_DeleteNotFound(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	c.upload("keep", strings.NewReader("x"), 1)
	assert.Equal(t, "OK@File not found.", c.do("DELETE@missing"))
	assert.Equal(t, "OK@File not found.", c.do("DELETE@../keep"))
	assert.Equal(t, "OK@keep", c.do("LIST"))
}

func TestSession_InvalidCommands(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	for _, cmd := range []string{
		"FOO",
		"",
		"list",
		"LIST@x",
		"UPLOAD@a",
		"UPLOAD@a@x",
		"UPLOAD@a@-1",
		"DELETE",
		"DELETE@a@b",
		"HELP@x",
		"LOGOUT@now",
	} {
		assert.Equal(t, "ERROR@Invalid command.", c.do(cmd), "command %q", cmd)
	}

	// still serving
	assert.Equal(t, "OK@The server directory is empty", c.do("LIST"))
}

func TestSession_Help(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	got := c.do("HELP")
	require.True(t, strings.HasPrefix(got, "OK@"))
	lines := strings.Split(strings.TrimPrefix(got, "OK@"), "\n")
	assert.Len(t, lines, 5)
	assert.Equal(t, "HELP: List all the commands.", lines[4])
}

func TestSession_InvalidNameDrainsPayload(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	assert.Equal(t, "ERROR@Invalid file name.", c.upload("../escape", strings.NewReader("12345"), 5))
	assert.Equal(t, "OK@The server directory is empty", c.do("LIST"))
}

// failingStore reads a little of every upload and then fails.
type failingStore struct {
	storage.Store
}

func (s failingStore) Write(_ context.Context, _ string, r io.Reader) error {
	_, _ = io.ReadFull(r, make([]byte, 3))
	return errors.New("disk full")
}

func TestSession_StoreFailureKeepsStreamAligned(t *testing.T) {
	st, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	f := newFixtureWithStore(failingStore{Store: st})
	c := f.connect(t)

	assert.Equal(t, "ERROR@Upload failed.", c.upload("f", strings.NewReader(strings.Repeat("z", 3000)), 3000))
	assert.Equal(t, "OK@The server directory is empty", c.do("LIST"))

	assert.Zero(t, f.journal.Len())
}

func TestSession_ShortUploadEndsSession(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	require.NoError(t, c.conn.Send([]byte("UPLOAD@part@100"), strings.NewReader("only ten b"), 10))
	require.NoError(t, c.nc.Close())
	c.waitClosed()

	ids, clients := f.reg.Len()
	assert.Zero(t, ids)
	assert.Zero(t, clients)

	names, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSession_LogoutClosesWithoutReply(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	c.send("LOGOUT")
	c.waitClosed()

	_, err := c.conn.ReadFrame()
	require.ErrorIs(t, err, io.EOF)

	ids, clients := f.reg.Len()
	assert.Zero(t, ids)
	assert.Zero(t, clients)
}

func TestSession_PeerHangupUnregisters(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	ids, clients := f.reg.Len()
	assert.Equal(t, 1, ids)
	assert.Equal(t, 1, clients)

	require.NoError(t, c.nc.Close())
	c.waitClosed()

	ids, clients = f.reg.Len()
	assert.Zero(t, ids)
	assert.Zero(t, clients)
}

func TestSession_HandshakeFailure(t *testing.T) {
	f := newFixture(t)

	cli, srv := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.h.ServeConn(context.Background(), srv)
	}()

	go func() { _, _ = io.Copy(io.Discard, cli) }()
	_, _ = cli.Write(make([]byte, 178))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handshake failure did not end the session")
	}
	_ = cli.Close()

	ids, clients := f.reg.Len()
	assert.Zero(t, ids)
	assert.Zero(t, clients)
}

func TestSession_JournalRecordsTransfers(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)

	c.upload("a", strings.NewReader("abc"), 3)
	c.do("DELETE@a")

	info := c.request(mstp.New(mstp.TypeREQ, mstp.ActionUserInfo))
	entries, err := f.journal.Recent(context.Background(), info.Header("username"), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, journal.ActionDelete, entries[0].Action)
	assert.Equal(t, journal.ActionUpload, entries[1].Action)
	assert.Equal(t, int64(3), entries[1].Size)
}
