package session

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/minsend/internal/mstp"
	"github.com/dmitrijs2005/minsend/internal/securechan"
	"github.com/dmitrijs2005/minsend/internal/server/registry"
	"github.com/dmitrijs2005/minsend/internal/transmit"
)

// peer is the registry handle of one connection. Deliveries from other
// sessions share conn with the owning session; securechan.Conn keeps their
// writes from interleaving.
type peer struct {
	conn *securechan.Conn

	// set by the registry before the peer is reachable
	client *registry.Client
}

func (p *peer) BindClient(c *registry.Client) { p.client = c }

func (p *peer) Deliver(ctx context.Context, t transmit.Transmittable) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := mstp.New(mstp.TypeREQ, mstp.ActionDeliver)
	m.Headers.Set("kind", string(t.Kind()))
	if p.client != nil {
		if u := p.client.Identity(); u != nil {
			m.Headers.Set("from", u.ID)
		}
	}

	switch v := t.(type) {
	case transmit.Text:
		m.Body = v.String()
		return p.conn.WriteFrame([]byte(m.Marshal()))

	case transmit.File:
		data := v.Bytes()
		m.Headers.Set("name", v.Name())
		m.Headers.Set("size", strconv.Itoa(len(data)))
		return p.conn.Send([]byte(m.Marshal()), bytes.NewReader(data), int64(len(data)))

	default:
		return fmt.Errorf("unsupported transmittable %T", t)
	}
}
