package cli

import (
	"context"
	"fmt"
	"strings"
)

func (a *App) prompt() string {
	if a.userName != "" {
		return fmt.Sprintf("fk (%s)> ", a.userName)
	}
	return "fk> "
}

// Root runs the read-eval loop until exit or end of input.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "FileKeeper operator console (type 'help' for commands)")

	for {
		fmt.Fprint(a.out, a.prompt())
		line, err := a.reader.ReadString('\n')
		if strings.TrimSpace(line) == "" && err != nil {
			fmt.Fprintln(a.out)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		if quit := a.dispatch(ctx, parts[0], parts[1:]); quit {
			return
		}
	}
}

// dispatch runs one command. It reports true when the console should exit.
func (a *App) dispatch(ctx context.Context, cmd string, args []string) bool {
	var err error

	switch cmd {
	case "help":
		a.help()
	case "login":
		err = a.login(ctx)
	case "register":
		err = a.register(ctx)
	case "logout":
		a.logout()
	case "upload":
		err = a.upload(ctx, args)
	case "files", "ls":
		err = a.listFiles(ctx)
	case "file", "get":
		err = a.showFile(ctx, args)
	case "sweep":
		err = a.sweep(ctx, args)
	case "exit", "quit":
		fmt.Fprintln(a.out, "Bye!")
		return true
	default:
		fmt.Fprintln(a.out, "Unknown command:", cmd)
	}

	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
	}
	return false
}

func (a *App) help() {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Available commands: login, register, help, exit")
		return
	}
	fmt.Fprintln(a.out, "Available commands: upload <path>, files, file <id>, sweep [retention], logout, help, exit")
}
