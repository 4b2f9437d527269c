package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/dmitrijs2005/minsend/internal/common"
	"github.com/dmitrijs2005/minsend/internal/cryptox"
	"github.com/dmitrijs2005/minsend/internal/mstp"
	"github.com/dmitrijs2005/minsend/internal/securechan"
	"github.com/dmitrijs2005/minsend/internal/transmit"
)

// Delivery is a payload pushed by another client of the same identity.
type Delivery struct {
	From string
	Kind transmit.Kind
	Text string
	Name string
	Data []byte
}

type DeliveryFunc func(Delivery)

type Client struct {
	addr       string
	nc         net.Conn
	conn       *securechan.Conn
	onDelivery DeliveryFunc

	reqMu   sync.Mutex
	replies chan string

	closeOnce sync.Once
	done      chan struct{}
	err       error
}

// Dial connects to addr and returns a ready client.
func Dial(ctx context.Context, addr string, kd cryptox.KeyDerivation, onDelivery DeliveryFunc) (*Client, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrTransport, err)
	}

	c, err := New(nc, kd, onDelivery)
	if err != nil {
		nc.Close()
		return nil, err
	}
	return c, nil
}

// New runs the handshake over nc and waits for the welcome message. The
// client owns nc from then on.
func New(nc net.Conn, kd cryptox.KeyDerivation, onDelivery DeliveryFunc) (*Client, error) {
	conn, err := securechan.Handshake(nc, kd)
	if err != nil {
		return nil, err
	}

	c := &Client{
		addr:       nc.RemoteAddr().String(),
		nc:         nc,
		conn:       conn,
		onDelivery: onDelivery,
		replies:    make(chan string, 1),
		done:       make(chan struct{}),
	}
	go c.readLoop()

	select {
	case text := <-c.replies:
		if _, err := parseReply(text); err != nil {
			c.Close()
			return nil, err
		}
	case <-c.done:
		return nil, c.err
	}

	return c, nil
}

// Addr is the server address the client is connected to.
func (c *Client) Addr() string { return c.addr }

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) Close() error {
	c.shutdown(ErrClosed)
	return nil
}

func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.err = err
		c.nc.Close()
		close(c.done)
	})
}

func (c *Client) readLoop() {
	for {
		frame, err := c.conn.ReadFrame()
		if err != nil {
			c.shutdown(fmt.Errorf("%w: %w", common.ErrTransport, err))
			return
		}

		text := string(frame)
		if mstp.IsRequest(text) {
			if m, perr := mstp.Parse(text); perr == nil && m.Action == mstp.ActionDeliver {
				d, err := c.readDelivery(m)
				if err != nil {
					c.shutdown(err)
					return
				}
				if c.onDelivery != nil {
					c.onDelivery(d)
				}
				continue
			}
		}

		select {
		case c.replies <- text:
		case <-c.done:
			return
		}
	}
}

func (c *Client) readDelivery(m *mstp.Message) (Delivery, error) {
	d := Delivery{
		From: m.Header("from"),
		Kind: transmit.Kind(m.Header("kind")),
	}

	switch d.Kind {
	case transmit.KindText:
		d.Text = m.Body

	case transmit.KindFile:
		d.Name = m.Header("name")
		size, err := strconv.ParseInt(m.Header("size"), 10, 64)
		if err != nil || size < 0 {
			return d, fmt.Errorf("%w: bad delivery size %q", common.ErrProtocol, m.Header("size"))
		}
		d.Data = make([]byte, size)
		if _, err := io.ReadFull(c.conn, d.Data); err != nil {
			return d, fmt.Errorf("%w: %w", common.ErrTransport, err)
		}
	}

	return d, nil
}

// roundTrip sends frame, followed by n raw bytes of body, and waits for
// the reply.
func (c *Client) roundTrip(ctx context.Context, frame string, body io.Reader, n int64) (string, error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	select {
	case <-c.done:
		return "", c.err
	default:
	}

	if err := c.conn.Send([]byte(frame), body, n); err != nil {
		c.shutdown(fmt.Errorf("%w: %w", common.ErrTransport, err))
		return "", c.err
	}

	select {
	case text := <-c.replies:
		return text, nil
	case <-c.done:
		return "", c.err
	case <-ctx.Done():
		c.shutdown(ctx.Err())
		return "", ctx.Err()
	}
}

// parseReply splits "OK@msg" / "ERROR@msg".
func parseReply(text string) (string, error) {
	tag, msg, ok := strings.Cut(text, common.Delimiter)
	switch {
	case ok && tag == common.TagOK:
		return msg, nil
	case ok && tag == common.TagError:
		return "", fmt.Errorf("%w: %s", common.ErrProtocol, msg)
	default:
		return "", fmt.Errorf("%w: unexpected reply %q", common.ErrProtocol, text)
	}
}

func (c *Client) command(ctx context.Context, frame string) (string, error) {
	text, err := c.roundTrip(ctx, frame, nil, 0)
	if err != nil {
		return "", err
	}
	return parseReply(text)
}
