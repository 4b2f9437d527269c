package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/minsend/internal/common"
	"github.com/dmitrijs2005/minsend/internal/filex"
)

// List returns the stored file names; an empty directory yields nil.
func (c *Client) List(ctx context.Context) ([]string, error) {
	msg, err := c.command(ctx, common.CmdList)
	if err != nil {
		return nil, err
	}
	if msg == common.MsgEmptyDirectory {
		return nil, nil
	}
	return strings.Split(msg, "\n"), nil
}

// Upload streams exactly size bytes of r to the server under name.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader, size int64) error {
	if !filex.ValidName(name) || strings.Contains(name, common.Delimiter) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	frame := strings.Join([]string{common.CmdUpload, name, strconv.FormatInt(size, 10)}, common.Delimiter)
	text, err := c.roundTrip(ctx, frame, r, size)
	if err != nil {
		return err
	}

	_, err = parseReply(text)
	return err
}

// UploadFile uploads the file at path under its base name and returns that
// name and the number of bytes sent.
func (c *Client) UploadFile(ctx context.Context, path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", 0, err
	}
	if fi.IsDir() {
		return "", 0, fmt.Errorf("%s is a directory", path)
	}

	name := filepath.Base(path)
	if err := c.Upload(ctx, name, f, fi.Size()); err != nil {
		return "", 0, err
	}
	return name, fi.Size(), nil
}

// Delete removes name and returns the server's message, which tells a
// deleted file apart from a missing one.
func (c *Client) Delete(ctx context.Context, name string) (string, error) {
	if strings.Contains(name, common.Delimiter) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return c.command(ctx, common.CmdDelete+common.Delimiter+name)
}

func (c *Client) Help(ctx context.Context) (string, error) {
	return c.command(ctx, common.CmdHelp)
}

// Logout tells the server to end the session and waits for it to close the
// connection.
func (c *Client) Logout(ctx context.Context) error {
	c.reqMu.Lock()
	err := c.conn.WriteFrame([]byte(common.CmdLogout))
	c.reqMu.Unlock()
	if err != nil {
		c.Close()
		return fmt.Errorf("%w: %w", common.ErrTransport, err)
	}

	select {
	case <-c.done:
	case <-ctx.Done():
	}
	return c.Close()
}
