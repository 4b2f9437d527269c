package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. App satisfies it; tests
// use a lightweight stub.
type execIface interface {
	List(ctx context.Context) error
	Upload(ctx context.Context, path string) error
	Delete(ctx context.Context, name string) error
	Help(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Join(ctx context.Context, id, pin string) error
	Say(ctx context.Context, text string) error
	Share(ctx context.Context, name string) error
	ServerHistory(ctx context.Context) error
	LocalHistory(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads commands from scanner and dispatches them to a until EOF,
// logout or a lost connection. Command words are case-insensitive; the
// arguments of upload, delete, say and share run to the end of the line.
//
// The prompt shows statusFn and is printed only on a terminal.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	interactive := isTerminal()

	for {
		if interactive {
			printlnFn(fmt.Sprintf("minsend %s> ", statusFn()))
		}
		if !scanner.Scan() {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := strings.ToLower(parts[0])
		rest := strings.TrimSpace(line[len(parts[0]):])

		var err error
		switch cmd {
		case "help":
			err = a.Help(ctx)

		case "l", "ls", "list":
			err = a.List(ctx)

		case "upload":
			if rest == "" {
				printlnFn("Usage: upload <path>")
				continue
			}
			err = a.Upload(ctx, rest)

		case "delete":
			if rest == "" {
				printlnFn("Usage: delete <name>")
				continue
			}
			err = a.Delete(ctx, rest)

		case "whoami":
			err = a.WhoAmI(ctx)

		case "join":
			if len(parts) < 2 || len(parts) > 3 {
				printlnFn("Usage: join <id> [pin]")
				continue
			}
			pin := ""
			if len(parts) == 3 {
				pin = parts[2]
			}
			err = a.Join(ctx, parts[1], pin)

		case "say":
			if rest == "" {
				printlnFn("Usage: say <text>")
				continue
			}
			err = a.Say(ctx, rest)

		case "share":
			if rest == "" {
				printlnFn("Usage: share <name>")
				continue
			}
			err = a.Share(ctx, rest)

		case "history":
			err = a.ServerHistory(ctx)

		case "local":
			err = a.LocalHistory(ctx)

		case "logout", "exit", "quit":
			if err := a.Logout(ctx); err != nil && !connectionLost(err) {
				printlnFn("Error:", err)
			}
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
			if connectionLost(err) {
				return
			}
		}
	}
}
