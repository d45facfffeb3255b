package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	Ping(ctx context.Context) error
	Add(ctx context.Context, args []string) error
	Taken(ctx context.Context, args []string) error
	Move(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Reconcile(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
}

const helpText = `Available commands:
  ping
  add user=<id> year=<year> credits=<n> [term=] [title=] [number=] [taken=true] [dists=<id>,<id>]
  taken <course_id> true|false
  move <course_id> [<distribution_id>,...]
  delete <course_id>
  reconcile <course_id>
  show <course_id>
  list user=<id> | list dist=<id> | list user=<id> year=<year> term=<term>
  exit`

// runREPL reads one command per line and dispatches it. Command errors are
// reported by the handlers themselves, so the loop only stops on EOF, on
// "exit"/"quit" or when ctx is done.
func runREPL(ctx context.Context, a execIface, scanner *bufio.Scanner, out io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprint(out, "ucredit> ")
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			fmt.Fprintln(out, helpText)
		case "ping":
			_ = a.Ping(ctx)
		case "add":
			_ = a.Add(ctx, args)
		case "taken":
			_ = a.Taken(ctx, args)
		case "move":
			_ = a.Move(ctx, args)
		case "delete":
			_ = a.Delete(ctx, args)
		case "reconcile":
			_ = a.Reconcile(ctx, args)
		case "show":
			_ = a.Show(ctx, args)
		case "l", "list":
			_ = a.List(ctx, args)
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return
		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}
	}
}
