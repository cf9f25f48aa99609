package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/sentinelhaus/confd/pkg/engine"
	"github.com/sentinelhaus/confd/pkg/events"
	"github.com/sentinelhaus/confd/pkg/security"
	"github.com/sentinelhaus/confd/pkg/source"
)

type CLI struct {
	engine   *engine.Engine
	store    source.Store
	security *security.Static
	bus      events.Bus
	rl       *readline.Instance
	running  bool
}

func NewCLI(eng *engine.Engine, store source.Store, sec *security.Static, bus events.Bus) *CLI {
	return &CLI{
		engine:   eng,
		store:    store,
		security: sec,
		bus:      bus,
		running:  true,
	}
}

func (c *CLI) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := c.engine.Load(ctx); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}
	if err := c.engine.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer c.engine.Stop()

	sub := c.bus.SubscribeAll(c.renderNotification)
	defer sub.Unsubscribe()

	var err error
	c.rl, err = readline.NewEx(&readline.Config{
		Prompt:          c.prompt(),
		HistoryFile:     os.ExpandEnv("$HOME/.confdcli_history"),
		AutoComplete:    c.buildCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer c.rl.Close()

	c.printBanner()

	for c.running {
		c.rl.SetPrompt(c.prompt())

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					break
				}
				continue
			} else if err == io.EOF {
				break
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := c.processCommand(ctx, line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	return nil
}

func (c *CLI) prompt() string {
	marker := ""
	if c.engine.Dirty() {
		marker = "*"
	}
	if !c.engine.Editable() {
		marker += " (read-only)"
	}
	return fmt.Sprintf("confd%s> ", marker)
}

func (c *CLI) printBanner() {
	fmt.Println("confd configuration shell")
	fmt.Println("Type 'help' for available commands.")
}

func (c *CLI) buildCompleter() *readline.PrefixCompleter {
	sections := make([]readline.PrefixCompleterInterface, 0)
	for _, name := range c.engine.Draft().Sections() {
		sections = append(sections, readline.PcItem(name))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("show", sections...),
		readline.PcItem("get"),
		readline.PcItem("set"),
		readline.PcItem("diff"),
		readline.PcItem("validate"),
		readline.PcItem("status"),
		readline.PcItem("save"),
		readline.PcItem("reset"),
		readline.PcItem("history"),
		readline.PcItem("level",
			readline.PcItem("low"),
			readline.PcItem("medium"),
			readline.PcItem("high"),
		),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

func (c *CLI) renderNotification(e events.Event) {
	switch data := e.Data.(type) {
	case events.SavedEvent:
		fmt.Println("\n[saved] configuration committed")
	case events.SaveFailedEvent:
		fmt.Printf("\n[save failed] %s\n", data.Message)
	case events.LoadFailedEvent:
		fmt.Printf("\n[load failed] %s\n", data.Message)
	case events.ConflictEvent:
		fmt.Println("\n[conflict] the store changed while your draft is dirty; 'reset' to adopt or 'save' to overwrite")
	case events.PermissionDeniedEvent:
		fmt.Printf("\n[denied] %s requires a higher security level\n", data.Operation)
	case events.ValidationEvent:
		if data.Unavailable {
			fmt.Println("\n[validation] validator unavailable")
		} else if data.Errors > 0 {
			fmt.Printf("\n[validation] %d finding(s), %d blocking\n", data.Findings, data.Errors)
		}
	}
	if c.rl != nil {
		c.rl.Refresh()
	}
}
