package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sentinelhaus/confd/pkg/document"
	"github.com/sentinelhaus/confd/pkg/engine"
	"github.com/sentinelhaus/confd/pkg/security"
	"github.com/sentinelhaus/confd/pkg/source"
)

func (c *CLI) processCommand(ctx context.Context, line string) error {
	parts := strings.Fields(line)
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "show":
		return c.cmdShow(args)
	case "get":
		return c.cmdGet(args)
	case "set":
		return c.cmdSet(args)
	case "diff":
		return c.cmdDiff()
	case "validate":
		return c.cmdValidate()
	case "status":
		return c.cmdStatus()
	case "save":
		return c.cmdSave(ctx)
	case "reset":
		return c.engine.Reset()
	case "history":
		return c.cmdHistory(ctx, args)
	case "level":
		return c.cmdLevel(args)
	case "help":
		c.cmdHelp()
		return nil
	case "exit", "quit":
		c.running = false
		return nil
	default:
		return fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
}

func (c *CLI) cmdShow(args []string) error {
	draft := c.engine.Draft()

	var out any = map[string]any(draft)
	if len(args) > 0 {
		value, ok := draft[args[0]]
		if !ok {
			return fmt.Errorf("unknown section %q", args[0])
		}
		out = value
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func (c *CLI) cmdGet(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: get <section.field.path>")
	}

	value, ok := c.engine.Draft().Lookup(args[0])
	if !ok {
		return fmt.Errorf("no value at %q", args[0])
	}

	data, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func (c *CLI) cmdSet(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: set <section.field.path> <value>")
	}

	path := args[0]
	value, err := parseValue(strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	section, rest, _ := strings.Cut(path, ".")
	draft := c.engine.Draft()
	current, ok := draft[section]
	if !ok {
		return fmt.Errorf("unknown section %q", section)
	}

	updated, err := document.SetField(current, rest, value)
	if err != nil {
		return err
	}

	return c.engine.ApplyPatch(section, updated)
}

// parseValue interprets the raw argument as a YAML scalar or structure, so
// `set mqtt.broker_port 8883` yields an int and `set mqtt.tls true` a bool.
func parseValue(raw string) (any, error) {
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("parse value: %w", err)
	}
	return value, nil
}

func (c *CLI) cmdDiff() error {
	snapshot := c.engine.Snapshot()
	draft := c.engine.Draft()

	changed := false
	for _, section := range draft.Sections() {
		sectionDoc := document.Document{section: draft[section]}
		if sectionDoc.Equal(document.Document{section: snapshot[section]}) {
			continue
		}
		changed = true
		fmt.Printf("--- %s (snapshot)\n", section)
		printYAML(snapshot[section])
		fmt.Printf("+++ %s (draft)\n", section)
		printYAML(draft[section])
	}

	if !changed {
		fmt.Println("no changes")
	}
	return nil
}

func (c *CLI) cmdValidate() error {
	result := c.engine.Validation()
	if len(result) == 0 {
		fmt.Println("no findings")
		return nil
	}

	paths := make([]string, 0, len(result))
	for path := range result {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		f := result[path]
		fmt.Printf("%-8s %s: %s\n", f.Severity, path, f.Message)
	}
	return nil
}

func (c *CLI) cmdStatus() error {
	fmt.Printf("dirty:      %v\n", c.engine.Dirty())
	fmt.Printf("save state: %s\n", c.engine.SaveState())
	fmt.Printf("editable:   %v\n", c.engine.Editable())
	fmt.Printf("level:      %s\n", c.security.Level())
	return nil
}

func (c *CLI) cmdSave(ctx context.Context) error {
	err := c.engine.Save(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, engine.ErrValidationBlocked):
		fmt.Println("save blocked; run 'validate' to see findings")
		return nil
	default:
		return err
	}
}

func (c *CLI) cmdHistory(ctx context.Context, args []string) error {
	historian, ok := c.store.(source.Historian)
	if !ok {
		return fmt.Errorf("the %T store does not keep revision history", c.store)
	}

	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("usage: history [count]")
		}
		limit = n
	}

	revisions, err := historian.Revisions(ctx, limit)
	if err != nil {
		return err
	}
	if len(revisions) == 0 {
		fmt.Println("no revisions")
		return nil
	}

	for _, rev := range revisions {
		fmt.Printf("rev %-6d %s  sections=%v\n",
			rev.Number, rev.Timestamp.Format("2006-01-02 15:04:05"), rev.Document.Sections())
	}
	return nil
}

func (c *CLI) cmdLevel(args []string) error {
	if len(args) != 1 {
		fmt.Printf("current level: %s\n", c.security.Level())
		return nil
	}

	level, err := security.ParseLevel(args[0])
	if err != nil {
		return err
	}
	c.security.Set(level)
	fmt.Printf("security level set to %s\n", level)
	return nil
}

func (c *CLI) cmdHelp() {
	fmt.Println(`Commands:
  show [section]          print the draft (or one section)
  get <path>              print the value at a dotted path
  set <path> <value>      patch a field (value parsed as YAML)
  diff                    show sections where draft differs from snapshot
  validate                print current validation findings
  status                  dirty flag, save state, permission
  save                    commit the draft to the store
  reset                   discard the draft
  history [count]         list committed revisions (sqlite store)
  level [low|medium|high] show or change the security level
  exit                    leave the shell`)
}

func printYAML(v any) {
	data, err := yaml.Marshal(v)
	if err != nil {
		fmt.Printf("  <unprintable: %v>\n", err)
		return
	}
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		fmt.Printf("  %s\n", line)
	}
}
