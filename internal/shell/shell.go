// Package shell turns command lines into task store operations.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nick-dorsch/todo/internal/store"
	"github.com/nick-dorsch/todo/internal/ui/components"
	"github.com/nick-dorsch/todo/pkg/models"
	"github.com/pkg/errors"
)

// Action tells the caller what to do after a command ran.
type Action int

const (
	ActionNone Action = iota
	ActionClear
	ActionExit
)

const (
	Banner      = "Todo CLI Tool. Type 'help' for a list of commands."
	Prompt      = "> "
	clearScreen = "\033[H\033[2J"
)

// UsageError reports a malformed command line.
type UsageError struct {
	Usage string
	Msg   string
}

func (e *UsageError) Error() string {
	if e.Usage == "" {
		return e.Msg
	}
	if e.Msg == "" {
		return "usage: " + e.Usage
	}
	return e.Msg + " (usage: " + e.Usage + ")"
}

type command struct {
	name    string
	aliases []string
	usage   string
	summary string
	run     func(sh *Shell, ctx context.Context, args []string) (Action, error)
}

var commands []command

func init() {
	commands = []command{
		{name: "add", usage: "add <description> <priority>", summary: "Add a new task", run: (*Shell).add},
		{name: "list", usage: "list [filter]", summary: "List tasks. Filters: " + strings.Join(store.ValidFilters(), ", "), run: (*Shell).list},
		{name: "update", usage: "update <id> [-p <priority>] <description>", summary: "Update a task's description and priority", run: (*Shell).update},
		{name: "status", usage: "status <id> <status>", summary: "Update a task's status (TODO, IN_PROGRESS, COMPLETE)", run: (*Shell).status},
		{name: "delete", usage: "delete <id>", summary: "Delete a task", run: (*Shell).delete},
		{name: "show", usage: "show <id>", summary: "Show a single task", run: (*Shell).show},
		{name: "summary", usage: "summary", summary: "Count tasks per status", run: (*Shell).summary},
		{name: "help", usage: "help", summary: "Show this help message", run: (*Shell).help},
		{name: "clear", usage: "clear", summary: "Clear the screen", run: func(*Shell, context.Context, []string) (Action, error) { return ActionClear, nil }},
		{name: "exit", aliases: []string{"quit"}, usage: "exit", summary: "Exit the application", run: func(*Shell, context.Context, []string) (Action, error) { return ActionExit, nil }},
	}
}

func lookup(name string) (command, bool) {
	name = strings.ToLower(name)
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
		for _, a := range c.aliases {
			if a == name {
				return c, true
			}
		}
	}
	return command{}, false
}

type Shell struct {
	store *store.Store
	out   io.Writer
}

func New(s *store.Store, out io.Writer) *Shell {
	return &Shell{store: s, out: out}
}

// Exec tokenizes and runs one command line. Errors never end the session;
// only ActionExit does.
func (sh *Shell) Exec(ctx context.Context, line string) (Action, error) {
	args, err := Tokenize(line)
	if err != nil {
		return ActionNone, &UsageError{Msg: err.Error()}
	}
	return sh.ExecArgs(ctx, args)
}

// ExecArgs runs an already tokenized command.
func (sh *Shell) ExecArgs(ctx context.Context, args []string) (Action, error) {
	if len(args) == 0 {
		return ActionNone, nil
	}

	cmd, ok := lookup(args[0])
	if !ok {
		return ActionNone, &UsageError{Msg: fmt.Sprintf("unknown command %q, type 'help' for a list of commands", args[0])}
	}

	slog.DebugContext(ctx, "executing command", slog.String("command", cmd.name), slog.Int("args", len(args)-1))
	return cmd.run(sh, ctx, args[1:])
}

// RunLines reads commands from in until exit or end of input, printing
// results and errors to the shell output.
func (sh *Shell) RunLines(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(sh.out, Banner)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(sh.out, Prompt)
		if !scanner.Scan() {
			fmt.Fprintln(sh.out)
			return errors.Wrap(scanner.Err(), "failed to read input")
		}

		action, err := sh.Exec(ctx, strings.TrimSpace(scanner.Text()))
		if err != nil {
			fmt.Fprintf(sh.out, "Error: %s\n", err)
			continue
		}

		switch action {
		case ActionClear:
			fmt.Fprint(sh.out, clearScreen)
		case ActionExit:
			return nil
		}
	}
}

func (sh *Shell) add(ctx context.Context, args []string) (Action, error) {
	const usage = "add <description> <priority>"
	if len(args) < 2 {
		return ActionNone, &UsageError{Usage: usage}
	}

	priority, err := strconv.Atoi(args[len(args)-1])
	if err != nil {
		return ActionNone, &UsageError{Usage: usage, Msg: "priority must be a number"}
	}
	description := strings.Join(args[:len(args)-1], " ")

	task, err := sh.store.Add(ctx, priority, description)
	if err != nil {
		return ActionNone, err
	}
	fmt.Fprintf(sh.out, "Task %d added.\n", task.ID)
	return ActionNone, nil
}

func (sh *Shell) list(ctx context.Context, args []string) (Action, error) {
	if len(args) > 1 {
		return ActionNone, &UsageError{Usage: "list [filter]"}
	}

	filter := store.FilterAll
	if len(args) == 1 {
		filter = args[0]
	}

	tasks, err := sh.store.List(filter)
	if err != nil {
		return ActionNone, err
	}
	fmt.Fprintln(sh.out, components.TaskTable(tasks, models.Today()))
	return ActionNone, nil
}

func (sh *Shell) update(ctx context.Context, args []string) (Action, error) {
	const usage = "update <id> [-p <priority>] <description>"
	if len(args) < 2 {
		return ActionNone, &UsageError{Usage: usage}
	}

	id, err := parseID(args[0], usage)
	if err != nil {
		return ActionNone, err
	}
	rest := args[1:]

	current, err := sh.store.Get(id)
	if err != nil {
		return ActionNone, err
	}
	priority := current.Priority

	if rest[0] == "-p" || rest[0] == "--priority" {
		if len(rest) < 2 {
			return ActionNone, &UsageError{Usage: usage}
		}
		priority, err = strconv.Atoi(rest[1])
		if err != nil {
			return ActionNone, &UsageError{Usage: usage, Msg: "priority must be a number"}
		}
		rest = rest[2:]
	}
	if len(rest) == 0 {
		return ActionNone, &UsageError{Usage: usage}
	}

	if err := sh.store.Update(ctx, id, priority, strings.Join(rest, " ")); err != nil {
		return ActionNone, err
	}
	fmt.Fprintf(sh.out, "Task %d updated.\n", id)
	return ActionNone, nil
}

func (sh *Shell) status(ctx context.Context, args []string) (Action, error) {
	const usage = "status <id> <status>"
	if len(args) < 2 {
		return ActionNone, &UsageError{Usage: usage}
	}

	id, err := parseID(args[0], usage)
	if err != nil {
		return ActionNone, err
	}

	if err := sh.store.UpdateStatus(ctx, id, strings.Join(args[1:], " ")); err != nil {
		return ActionNone, err
	}

	task, err := sh.store.Get(id)
	if err != nil {
		return ActionNone, err
	}
	fmt.Fprintf(sh.out, "Task %d status set to %s.\n", id, task.Status)
	return ActionNone, nil
}

func (sh *Shell) delete(ctx context.Context, args []string) (Action, error) {
	const usage = "delete <id>"
	if len(args) != 1 {
		return ActionNone, &UsageError{Usage: usage}
	}

	id, err := parseID(args[0], usage)
	if err != nil {
		return ActionNone, err
	}

	if err := sh.store.Delete(ctx, id); err != nil {
		return ActionNone, err
	}
	fmt.Fprintf(sh.out, "Task %d deleted.\n", id)
	return ActionNone, nil
}

func (sh *Shell) show(ctx context.Context, args []string) (Action, error) {
	const usage = "show <id>"
	if len(args) != 1 {
		return ActionNone, &UsageError{Usage: usage}
	}

	id, err := parseID(args[0], usage)
	if err != nil {
		return ActionNone, err
	}

	task, err := sh.store.Get(id)
	if err != nil {
		return ActionNone, err
	}

	fmt.Fprintf(sh.out, "ID:          %d\n", task.ID)
	fmt.Fprintf(sh.out, "Description: %s\n", task.Description)
	fmt.Fprintf(sh.out, "Priority:    %d\n", task.Priority)
	fmt.Fprintf(sh.out, "Status:      %s\n", task.Status)
	fmt.Fprintf(sh.out, "Created:     %s\n", task.Created)
	fmt.Fprintf(sh.out, "Updated:     %s (%s)\n", task.Updated, components.Age(task.Updated, models.Today()))
	return ActionNone, nil
}

func (sh *Shell) summary(ctx context.Context, args []string) (Action, error) {
	stats := sh.store.Stats()
	fmt.Fprintln(sh.out, components.NewSummary(stats.ByStatus, stats.Total).View())
	return ActionNone, nil
}

func (sh *Shell) help(ctx context.Context, args []string) (Action, error) {
	fmt.Fprintln(sh.out, HelpText())
	return ActionNone, nil
}

// HelpText lists every command with its usage.
func HelpText() string {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-44s %s\n", c.usage, c.summary)
	}
	return strings.TrimRight(b.String(), "\n")
}

func parseID(token, usage string) (int, error) {
	id, err := strconv.Atoi(token)
	if err != nil {
		return 0, &UsageError{Usage: usage, Msg: "id must be a number"}
	}
	return id, nil
}
