package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/minsend/internal/common"
)

// localHistoryLimit bounds the output of the local command.
const localHistoryLimit = 20

const clientHelp = "Client commands: whoami, join <id> [pin], say <text>, share <name>, history, local, exit"

func (a *App) List(ctx context.Context) error {
	names, err := a.client.List(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		printlnFn(common.MsgEmptyDirectory)
		return nil
	}
	for _, n := range names {
		printlnFn(n)
	}
	return nil
}

func (a *App) Upload(ctx context.Context, path string) error {
	name, size, err := a.client.UploadFile(ctx, path)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("%s %s (%d bytes)", common.MsgUploaded, name, size))
	a.record(ctx, "upload", name, size)
	return nil
}

func (a *App) Delete(ctx context.Context, name string) error {
	msg, err := a.client.Delete(ctx, name)
	if err != nil {
		return err
	}
	printlnFn(msg)
	if msg == common.MsgDeleted {
		a.record(ctx, "delete", name, 0)
	}
	return nil
}

func (a *App) Help(ctx context.Context) error {
	text, err := a.client.Help(ctx)
	if err != nil {
		return err
	}
	printlnFn(text)
	printlnFn(clientHelp)
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	info, err := a.client.UserInfo(ctx)
	if err != nil {
		return err
	}
	a.setUsername(info.Username)
	printlnFn(fmt.Sprintf("identity: %s\npin: %s\nclients: %d", info.Username, info.Pin, info.Clients))
	return nil
}

// Join signs this connection in to the identity id. An empty pin is read
// from the terminal.
func (a *App) Join(ctx context.Context, id, pin string) error {
	if pin == "" {
		p, err := GetPin(os.Stdout)
		if err != nil {
			return err
		}
		pin = p
	}

	if err := a.client.SignIn(ctx, id, pin); err != nil {
		return err
	}
	a.setUsername(id)
	printlnFn("Joined", id)
	return nil
}

func (a *App) Say(ctx context.Context, text string) error {
	delivered, failed, err := a.client.BroadcastText(ctx, text)
	if err != nil {
		return err
	}
	printBroadcast(delivered, failed)
	return nil
}

func (a *App) Share(ctx context.Context, name string) error {
	delivered, failed, err := a.client.BroadcastFile(ctx, name)
	if err != nil {
		return err
	}
	printBroadcast(delivered, failed)
	a.record(ctx, "share", name, 0)
	return nil
}

func printBroadcast(delivered, failed int) {
	if failed > 0 {
		printlnFn(fmt.Sprintf("Delivered to %d client(s), %d failed.", delivered, failed))
		return
	}
	printlnFn(fmt.Sprintf("Delivered to %d client(s).", delivered))
}

// ServerHistory prints the server transfer journal.
func (a *App) ServerHistory(ctx context.Context) error {
	lines, err := a.client.History(ctx, 0)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		printlnFn("No transfers yet.")
		return nil
	}
	for _, l := range lines {
		printlnFn(l)
	}
	return nil
}

// LocalHistory prints the transfers made from this machine.
func (a *App) LocalHistory(ctx context.Context) error {
	entries, err := a.history.Recent(ctx, localHistoryLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		printlnFn("No local history.")
		return nil
	}
	for _, e := range entries {
		printlnFn(e.String())
	}
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.leaving.Store(true)
	return a.client.Logout(ctx)
}
