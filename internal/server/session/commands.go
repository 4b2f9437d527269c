package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/minsend/internal/common"
	"github.com/dmitrijs2005/minsend/internal/filex"
	"github.com/dmitrijs2005/minsend/internal/server/journal"
	"github.com/dmitrijs2005/minsend/internal/server/storage"
)

// handleCommand serves one line-protocol frame. done is set on LOGOUT.
func (s *session) handleCommand(ctx context.Context, text string) (done bool, err error) {
	args := strings.Split(text, common.Delimiter)

	switch args[0] {
	case common.CmdList:
		if len(args) == 1 {
			return false, s.list(ctx)
		}

	case common.CmdUpload:
		if len(args) == 3 {
			size, perr := strconv.ParseInt(args[2], 10, 64)
			if perr == nil && size >= 0 {
				return false, s.upload(ctx, args[1], size)
			}
		}

	case common.CmdDelete:
		if len(args) == 2 {
			return false, s.delete(ctx, args[1])
		}

	case common.CmdHelp:
		if len(args) == 1 {
			return false, s.reply(common.TagOK, common.HelpText)
		}

	case common.CmdLogout:
		if len(args) == 1 {
			s.log.Debug(ctx, "Logout")
			return true, nil
		}
	}

	s.log.Debug(ctx, "Invalid command", "command", args[0])
	return false, s.reply(common.TagError, common.MsgInvalidCommand)
}

func (s *session) list(ctx context.Context) error {
	names, err := s.store.List(ctx)
	if err != nil {
		s.log.Warn(ctx, "list files", "error", err)
	}

	if len(names) == 0 {
		return s.reply(common.TagOK, common.MsgEmptyDirectory)
	}

	return s.reply(common.TagOK, strings.Join(names, "\n"))
}

// upload consumes exactly size raw bytes whatever the outcome, so the
// stream stays aligned on frame boundaries.
func (s *session) upload(ctx context.Context, name string, size int64) error {
	body := newPayloadReader(s.conn, size)

	if !filex.ValidName(name) {
		if err := body.drain(); err != nil {
			return err
		}
		return s.reply(common.TagError, common.MsgInvalidName)
	}

	werr := s.store.Write(ctx, name, body)
	if body.err != nil {
		return body.err
	}

	// the store may stop early on failure
	if err := body.drain(); err != nil {
		return err
	}

	if werr != nil {
		s.log.Error(ctx, "store upload", "name", name, "error", werr)
		return s.reply(common.TagError, common.MsgUploadFailed)
	}

	s.log.Info(ctx, "Uploaded", "name", name, "size", size)
	s.record(ctx, journal.ActionUpload, name, size)

	return s.reply(common.TagOK, common.MsgUploaded)
}

func (s *session) delete(ctx context.Context, name string) error {
	names, err := s.store.List(ctx)
	if err == nil && len(names) == 0 {
		return s.reply(common.TagOK, common.MsgEmptyDirectory)
	}

	err = s.store.Delete(ctx, name)
	switch {
	case err == nil:
		s.log.Info(ctx, "Deleted", "name", name)
		s.record(ctx, journal.ActionDelete, name, 0)
		return s.reply(common.TagOK, common.MsgDeleted)

	case errors.Is(err, common.ErrorNotFound), errors.Is(err, storage.ErrInvalidName):
		return s.reply(common.TagOK, common.MsgFileNotFound)

	default:
		s.log.Error(ctx, "delete file", "name", name, "error", err)
		return s.reply(common.TagError, common.MsgDeleteFailed)
	}
}

func (s *session) record(ctx context.Context, action journal.Action, name string, size int64) {
	e := &journal.Entry{
		Identity: s.identityID(),
		Action:   action,
		Name:     name,
		Size:     size,
	}
	if err := s.journal.Record(ctx, e); err != nil {
		s.log.Warn(ctx, "journal", "action", string(action), "error", err)
	}
}

func (s *session) identityID() string {
	if u := s.client.Identity(); u != nil {
		return u.ID
	}
	return ""
}

// payloadReader yields exactly n bytes from r, at most common.ChunkSize per
// read. A premature end of r is a transport failure and sticks.
type payloadReader struct {
	r         io.Reader
	remaining int64
	err       error
}

func newPayloadReader(r io.Reader, n int64) *payloadReader {
	return &payloadReader{r: r, remaining: n}
}

func (p *payloadReader) Read(b []byte) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	if p.remaining <= 0 {
		return 0, io.EOF
	}

	if len(b) > common.ChunkSize {
		b = b[:common.ChunkSize]
	}
	if int64(len(b)) > p.remaining {
		b = b[:p.remaining]
	}

	n, err := p.r.Read(b)
	p.remaining -= int64(n)

	if err != nil && p.remaining > 0 {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		p.err = fmt.Errorf("%w: %w", common.ErrTransport, err)
		return n, p.err
	}

	return n, nil
}

// drain discards whatever is left of the payload.
func (p *payloadReader) drain() error {
	if _, err := io.Copy(io.Discard, p); err != nil {
		return err
	}
	return p.err
}
