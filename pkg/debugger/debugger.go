// Package debugger implements the interactive REPL for stepping through
// scenario execution.
package debugger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ormasoftchile/splint/pkg/engine"
	"github.com/ormasoftchile/splint/pkg/schema"
)

// Debugger provides an interactive REPL for stepping through a scenario one
// step at a time, inspecting variables, responses and healing events between
// steps.
type Debugger struct {
	scenario *schema.Scenario
	engine   *engine.Engine
	output   io.Writer
	rl       *readline.Instance
}

// New creates a debugger for the given scenario. The engine config follows
// the same defaulting rules as a normal run, so an empty config steps
// through with the dry-run driver.
func New(sc *schema.Scenario, cfg engine.Config) *Debugger {
	return &Debugger{
		scenario: sc,
		engine:   engine.New(sc, cfg),
		output:   os.Stdout,
	}
}

// Engine returns the underlying engine for result inspection after the
// session ends.
func (d *Debugger) Engine() *engine.Engine {
	return d.engine
}

// Run starts the scenario and enters the interactive loop. The run is
// sealed on every exit path, so the browser session is always released.
func (d *Debugger) Run(ctx context.Context) error {
	commands := []string{"next", "continue", "print vars", "print responses",
		"history", "healing", "dump", "help", "quit"}

	completer := readline.NewPrefixCompleter()
	for _, cmd := range commands {
		completer.Children = append(completer.Children,
			readline.PcItem(cmd))
	}

	if err := d.engine.Start(ctx); err != nil {
		d.engine.Finish()
		return fmt.Errorf("start run: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          d.buildPrompt(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		d.engine.Finish()
		return fmt.Errorf("init readline: %w", err)
	}
	d.rl = rl
	defer d.printOutcome()
	defer rl.Close()

	_, total := d.engine.Position()
	fmt.Fprintf(d.output, "splint debugger — %s, %d steps\n", d.scenario.Name, total)
	fmt.Fprintf(d.output, "Type 'help' for available commands, 'next' to execute the next step.\n\n")

	for {
		rl.SetPrompt(d.buildPrompt())
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		switch parts[0] {
		case "next", "n":
			if err := d.handleNext(ctx); err != nil {
				fmt.Fprintf(d.output, "Error: %v\n", err)
			}
		case "continue", "c":
			if err := d.handleContinue(ctx); err != nil {
				fmt.Fprintf(d.output, "Error: %v\n", err)
			}
		case "print", "p":
			d.handlePrint(parts)
		case "history", "h":
			d.handleHistory()
		case "healing":
			d.handleHealing()
		case "dump":
			d.handleDump()
		case "help", "?":
			d.handleHelp()
		case "quit", "q":
			fmt.Fprintf(d.output, "Exiting debugger.\n")
			return nil
		default:
			fmt.Fprintf(d.output, "Unknown command: %q. Type 'help' for available commands.\n", parts[0])
		}
	}
}

// buildPrompt creates the prompt string: splint[N/total | step-id]>
func (d *Debugger) buildPrompt() string {
	if d.engine.Done() {
		return "splint[done]> "
	}
	idx, total := d.engine.Position()
	return fmt.Sprintf("splint[%d/%d | %s]> ", idx+1, total, d.engine.CurrentStep().ID)
}

// printOutcome seals the run and reports the final status line.
func (d *Debugger) printOutcome() {
	res := d.engine.Finish()
	if res.Run == nil {
		return
	}
	s := res.Run.Summary
	fmt.Fprintf(d.output, "Run %s: %s (%d passed, %d failed, %d skipped, %d healed)\n",
		res.Run.ID, res.Run.Status, s.Passed, s.Failed, s.Skipped, s.Healed)
}
