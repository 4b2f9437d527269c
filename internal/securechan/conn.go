// Package securechan runs the key-exchange handshake over a fresh stream
// and then carries every byte of that stream through the derived ciphers.
//
// On the wire, after the two plain-text public keys, the stream carries
// length-prefixed frames (commands and replies) and, between them, raw
// payload bytes whose length was announced by the preceding frame.
package securechan

import (
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/minsend/internal/common"
	"github.com/dmitrijs2005/minsend/internal/cryptox"
)

// MaxFrameSize caps a single frame. Raw payloads are not frames and are not
// affected.
const MaxFrameSize = 1 << 20

const frameHeaderSize = 4

// Conn is the encrypted view of one connection. One goroutine may read while
// any number of goroutines write; writes are serialized.
type Conn struct {
	rw io.ReadWriter
	r  io.Reader

	wmu sync.Mutex
	w   io.Writer
}

// Handshake exchanges ephemeral public keys over rw and returns the
// encrypted connection. It is attempted once; on error the caller must close
// the underlying transport.
func Handshake(rw io.ReadWriter, kd cryptox.KeyDerivation) (*Conn, error) {
	priv, err := cryptox.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: generate key: %v", common.ErrHandshake, err)
	}

	own, err := cryptox.EncodePublicKey(priv.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrHandshake, err)
	}

	// both sides send first; write concurrently so unbuffered transports
	// don't deadlock
	sent := make(chan error, 1)
	go func() {
		_, err := rw.Write(own)
		sent <- err
	}()

	peerKey := make([]byte, len(own))
	if _, err := io.ReadFull(rw, peerKey); err != nil {
		return nil, fmt.Errorf("%w: read peer key: %v", common.ErrHandshake, err)
	}

	if err := <-sent; err != nil {
		return nil, fmt.Errorf("%w: send key: %v", common.ErrHandshake, err)
	}

	peer, err := cryptox.DecodePublicKey(peerKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrHandshake, err)
	}

	streams, err := cryptox.Agree(priv, peer, kd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrHandshake, err)
	}

	return NewConn(rw, streams), nil
}

// NewConn wraps rw with already agreed streams.
func NewConn(rw io.ReadWriter, s *cryptox.Streams) *Conn {
	return &Conn{
		rw: rw,
		r:  &cipher.StreamReader{S: s.Decrypt, R: rw},
		w:  &cipher.StreamWriter{S: s.Encrypt, W: rw},
	}
}

// Read returns decrypted raw bytes.
func (c *Conn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

// ReadFrame reads one length-prefixed frame. A clean end of stream before
// the header returns io.EOF; a frame cut short returns io.ErrUnexpectedEOF.
func (c *Conn) ReadFrame() ([]byte, error) {
	var hdr [frameHeaderSize]byte
	if _, err := io.ReadFull(c.r, hdr[:]); err != nil {
		return nil, err
	}

	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit", n)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	return buf, nil
}

// WriteFrame writes p as one frame.
func (c *Conn) WriteFrame(p []byte) error {
	return c.Send(p, nil, 0)
}

// Send writes frame followed by exactly n raw bytes taken from body, with no
// other writer interleaving. body may be nil when n is 0.
func (c *Conn) Send(frame []byte, body io.Reader, n int64) error {
	if len(frame) > MaxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds limit", len(frame))
	}

	buf := make([]byte, frameHeaderSize+len(frame))
	binary.BigEndian.PutUint32(buf, uint32(len(frame)))
	copy(buf[frameHeaderSize:], frame)

	c.wmu.Lock()
	defer c.wmu.Unlock()

	if _, err := c.w.Write(buf); err != nil {
		return err
	}

	if n == 0 {
		return nil
	}

	written, err := io.CopyBuffer(c.w, io.LimitReader(body, n), make([]byte, common.ChunkSize))
	if err != nil {
		return err
	}
	if written != n {
		return fmt.Errorf("payload short: %d of %d bytes", written, n)
	}

	return nil
}

// Close closes the underlying transport if it can be closed.
func (c *Conn) Close() error {
	if cl, ok := c.rw.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
