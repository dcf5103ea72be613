package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	List(ctx context.Context) error
	Search(ctx context.Context, query string) error
	Show(ctx context.Context, id string) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Platforms(ctx context.Context) error
	Refresh(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: login, help, exit"
	helpLoggedIn  = "Available commands: (l)ist, search <text>, show <id>, add, edit <id>, delete <id>, platforms, refresh, help, exit"
)

// runREPL reads commands line by line from reader and dispatches them to a
// until EOF or "exit"/"quit". Everything except help, login and exit needs a
// signed-in session. Handlers report their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("vault %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
			continue
		case "login":
			_ = a.Login(ctx)
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		if !a.isLoggedIn() {
			if isKnown(cmd) {
				printlnFn("Please log in first.")
			} else {
				printlnFn("Unknown command:", cmd)
			}
			continue
		}

		switch cmd {
		case "l", "list":
			_ = a.List(ctx)
		case "search":
			_ = a.Search(ctx, strings.Join(args, " "))
		case "show":
			if id, ok := oneArg(cmd, args); ok {
				_ = a.Show(ctx, id)
			}
		case "add":
			_ = a.Add(ctx)
		case "edit":
			if id, ok := oneArg(cmd, args); ok {
				_ = a.Edit(ctx, id)
			}
		case "delete", "rm":
			if id, ok := oneArg(cmd, args); ok {
				_ = a.Delete(ctx, id)
			}
		case "platforms":
			_ = a.Platforms(ctx)
		case "refresh":
			_ = a.Refresh(ctx)
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func oneArg(cmd string, args []string) (string, bool) {
	if len(args) != 1 {
		printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
		return "", false
	}
	return args[0], true
}

func isKnown(cmd string) bool {
	switch cmd {
	case "l", "list", "search", "show", "add", "edit", "delete", "rm", "platforms", "refresh":
		return true
	}
	return false
}
