package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/minsend/internal/common"
	"github.com/dmitrijs2005/minsend/internal/mstp"
	"github.com/dmitrijs2005/minsend/internal/transmit"
)

func isMSTP(text string) bool {
	return mstp.IsRequest(text)
}

// MaxSignInFailures is the number of denied sign-ins after which the
// session is closed.
const MaxSignInFailures = 3

// handleMessage answers one MSTP request with a RES of the same action.
// done is set once the session has used up its sign-in attempts.
func (s *session) handleMessage(ctx context.Context, text string) (done bool, err error) {
	req, err := mstp.Parse(text)
	if err != nil {
		s.log.Debug(ctx, "Malformed message", "error", err)
		return false, s.reply(common.TagError, common.MsgMalformed)
	}

	res := mstp.New(mstp.TypeRES, req.Action)

	switch req.Action {
	case mstp.ActionUserInfo:
		s.userInfo(res)
	case mstp.ActionSignIn:
		done = s.signIn(ctx, req, res)
	case mstp.ActionBroadcast:
		s.broadcast(ctx, req, res)
	case mstp.ActionHistory:
		s.history(ctx, req, res)
	default:
		res.Headers.Set("status", mstp.StatusError)
		res.Headers.Set("reason", "unknown action")
	}

	if err := s.conn.WriteFrame([]byte(res.Marshal())); err != nil {
		return false, fmt.Errorf("%w: %w", common.ErrTransport, err)
	}
	return done, nil
}

func (s *session) userInfo(res *mstp.Message) {
	u := s.client.Identity()
	if u == nil {
		res.Headers.Set("status", mstp.StatusError)
		res.Headers.Set("reason", "no identity")
		return
	}
	res.Headers.Set("status", mstp.StatusOK)
	res.Headers.Set("username", u.ID)
	res.Headers.Set("pin", u.Pin)
	res.Headers.Set("clients", strconv.Itoa(len(s.registry.Clients(u))))
}

// signIn reports whether the session must end.
func (s *session) signIn(ctx context.Context, req, res *mstp.Message) bool {
	id := req.Header("username")

	err := s.registry.SwitchIdentity(s.client, id, req.Header("pin"))
	switch {
	case err == nil:
		s.log = s.log.With("identity", id)
		s.log.Info(ctx, "Signed in")
		res.Headers.Set("status", mstp.StatusOK)
		res.Headers.Set("username", id)

	case errors.Is(err, common.ErrIdentityNotFound), errors.Is(err, common.ErrorUnauthorized):
		s.signInFailures++
		res.Headers.Set("status", mstp.StatusDenied)
		if s.signInFailures >= MaxSignInFailures {
			s.log.Warn(ctx, "Too many sign-in failures", "username", id)
			res.Headers.Set("reason", "too many attempts")
			return true
		}
		s.log.Info(ctx, "Sign-in denied", "username", id)
		res.Headers.Set("reason", "invalid username or pin")

	default:
		s.log.Error(ctx, "sign in", "error", err)
		res.Headers.Set("status", mstp.StatusError)
		res.Headers.Set("reason", "internal error")
	}
	return false
}

func (s *session) broadcast(ctx context.Context, req, res *mstp.Message) {
	var t transmit.Transmittable

	switch transmit.Kind(req.Header("kind")) {
	case transmit.KindText:
		t = transmit.NewText(req.Body)

	case transmit.KindFile:
		name := req.Header("name")
		data, err := s.store.Read(ctx, name)
		if err != nil {
			s.log.Debug(ctx, "broadcast file", "name", name, "error", err)
			res.Headers.Set("status", mstp.StatusError)
			res.Headers.Set("reason", "file not found")
			return
		}
		t = transmit.NewFile(name, data)

	default:
		res.Headers.Set("status", mstp.StatusError)
		res.Headers.Set("reason", "unknown kind")
		return
	}

	r := s.client.Receive(ctx, t)
	if r.Err != nil {
		s.log.Warn(ctx, "broadcast delivery", "failed", r.Failed, "error", r.Err)
	}

	res.Headers.Set("status", mstp.StatusOK)
	res.Headers.Set("delivered", strconv.Itoa(r.Delivered))
	res.Headers.Set("failed", strconv.Itoa(r.Failed))
}

// history lists the journal entries of the caller's own identity.
func (s *session) history(ctx context.Context, req, res *mstp.Message) {
	limit := DefaultHistoryLimit
	if v, ok := req.Headers.Get("limit"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			res.Headers.Set("status", mstp.StatusError)
			res.Headers.Set("reason", "invalid limit")
			return
		}
		limit = n
	}

	entries, err := s.journal.Recent(ctx, s.identityID(), limit)
	if err != nil {
		s.log.Error(ctx, "journal recent", "error", err)
		res.Headers.Set("status", mstp.StatusError)
		res.Headers.Set("reason", "internal error")
		return
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.String())
	}

	res.Headers.Set("status", mstp.StatusOK)
	res.Headers.Set("count", strconv.Itoa(len(entries)))
	res.Body = strings.Join(lines, "\n")
}
