package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal reports whether stdin is a terminal. The prompt and the hidden
// pin entry are only used when it is.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

var errPinRequired = errors.New("pin required")

// GetPin reads a pin from the terminal without echo.
func GetPin(w io.Writer) (string, error) {
	if !isTerminal() {
		return "", errPinRequired
	}

	if _, err := fmt.Fprint(w, "Enter pin: "); err != nil {
		return "", err
	}
	pin, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}

	s := strings.TrimSpace(string(pin))
	if s == "" {
		return "", errPinRequired
	}
	return s, nil
}
