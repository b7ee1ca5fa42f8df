package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/objmodel/sim"
	"github.com/wippyai/objmodel/trace"
)

func main() {
	var (
		traceFile   = flag.String("trace", "", "Path to trace json file")
		halt        = flag.Bool("halt", false, "Stop at the first violation")
		jsonOut     = flag.Bool("json", false, "Emit results as json")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *traceFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: run -trace <file.json> [-halt] [-json]")
		fmt.Fprintln(os.Stderr, "       run -trace <file.json> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(*traceFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*traceFile, *halt, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(traceFile string, halt, jsonOut bool) error {
	f, err := os.Open(traceFile)
	if err != nil {
		return fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()

	tr, err := trace.Decode(f)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	ev := sim.New(sim.Config{HaltOnUB: halt})
	results, err := ev.Run(tr)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	// Color only when stdout is a terminal.
	styled := term.IsTerminal(int(os.Stdout.Fd()))
	violations := 0
	for _, res := range results {
		line := res.String()
		if styled {
			switch res.Kind {
			case trace.ResultViolation:
				line = errorStyle.Render(line)
			case trace.ResultUnspecified:
				line = unspecStyle.Render(line)
			default:
				line = okStyle.Render(line)
			}
		}
		fmt.Println(line)
		if res.Kind == trace.ResultViolation {
			violations++
		}
	}

	fmt.Printf("\n%d ops, %d violations\n", len(results), violations)
	if violations > 0 {
		os.Exit(2)
	}
	return nil
}

var (
	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#90EE90"))

	unspecStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)
