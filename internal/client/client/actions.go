package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/minsend/internal/common"
	"github.com/dmitrijs2005/minsend/internal/mstp"
)

type UserInfo struct {
	Username string
	Pin      string
	Clients  int
}

// request sends an MSTP request and returns the RES with status ok.
func (c *Client) request(ctx context.Context, m *mstp.Message) (*mstp.Message, error) {
	text, err := c.roundTrip(ctx, m.Marshal(), nil, 0)
	if err != nil {
		return nil, err
	}

	if !strings.HasPrefix(text, mstp.TypeRES.String()+" ") {
		_, err := parseReply(text)
		if err == nil {
			err = fmt.Errorf("%w: unexpected reply %q", common.ErrProtocol, text)
		}
		return nil, err
	}

	res, err := mstp.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrProtocol, err)
	}

	switch res.Header("status") {
	case mstp.StatusOK:
		return res, nil
	case mstp.StatusDenied:
		return nil, fmt.Errorf("%w: %s", common.ErrorUnauthorized, res.Header("reason"))
	default:
		return nil, fmt.Errorf("%w: %s", common.ErrProtocol, res.Header("reason"))
	}
}

func (c *Client) UserInfo(ctx context.Context) (*UserInfo, error) {
	res, err := c.request(ctx, mstp.New(mstp.TypeREQ, mstp.ActionUserInfo))
	if err != nil {
		return nil, err
	}

	n, _ := strconv.Atoi(res.Header("clients"))
	return &UserInfo{
		Username: res.Header("username"),
		Pin:      res.Header("pin"),
		Clients:  n,
	}, nil
}

// SignIn moves this connection onto the identity username.
func (c *Client) SignIn(ctx context.Context, username, pin string) error {
	m := mstp.New(mstp.TypeREQ, mstp.ActionSignIn)
	m.Headers.Set("username", username)
	m.Headers.Set("pin", pin)

	_, err := c.request(ctx, m)
	return err
}

// BroadcastText sends text to the other clients of this identity.
func (c *Client) BroadcastText(ctx context.Context, text string) (delivered, failed int, err error) {
	m := mstp.New(mstp.TypeREQ, mstp.ActionBroadcast)
	m.Headers.Set("kind", "text")
	m.Body = text
	return c.broadcast(ctx, m)
}

// BroadcastFile pushes the stored file name to the other clients of this
// identity.
func (c *Client) BroadcastFile(ctx context.Context, name string) (delivered, failed int, err error) {
	m := mstp.New(mstp.TypeREQ, mstp.ActionBroadcast)
	m.Headers.Set("kind", "file")
	m.Headers.Set("name", name)
	return c.broadcast(ctx, m)
}

func (c *Client) broadcast(ctx context.Context, m *mstp.Message) (int, int, error) {
	res, err := c.request(ctx, m)
	if err != nil {
		return 0, 0, err
	}
	delivered, _ := strconv.Atoi(res.Header("delivered"))
	failed, _ := strconv.Atoi(res.Header("failed"))
	return delivered, failed, nil
}

// History returns up to limit server journal lines, newest first. A limit
// of 0 uses the server default.
func (c *Client) History(ctx context.Context, limit int) ([]string, error) {
	m := mstp.New(mstp.TypeREQ, mstp.ActionHistory)
	if limit > 0 {
		m.Headers.Set("limit", strconv.Itoa(limit))
	}

	res, err := c.request(ctx, m)
	if err != nil {
		return nil, err
	}
	if res.Body == "" {
		return nil, nil
	}
	return strings.Split(res.Body, "\n"), nil
}
