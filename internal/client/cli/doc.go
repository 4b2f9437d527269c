// Package cli provides the interactive minsend command-line client.
//
// It wires configuration, the local transfer history and a connection to the
// file server, then runs a REPL until the user leaves or the server goes away.
//
// Commands:
//   - list                 list the files on the server
//   - upload <path>        upload a local file
//   - delete <name>        delete a file on the server
//   - help                 show the server help and the client commands
//   - whoami               show the identity, pin and client count
//   - join <id> [pin]      move this connection onto another identity
//   - say <text>           send text to the other clients of the identity
//   - share <name>         push a stored file to the other clients
//   - history              show the server transfer journal
//   - local                show the local transfer history
//   - logout | exit | quit leave the program
//
// Files pushed by other clients are saved into the download directory.
package cli
