package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const replPrompt = "adae> "

func newReplCommand(ctx *commandContext) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive JavaScript prompt with the engine bindings installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.runtime()
			if err != nil {
				return err
			}
			cfg, _ := ctx.ensureConfig()

			wd, _ := os.Getwd()
			rt := newScriptRuntime(app, append([]string{wd}, cfg.Scripts.Paths...), true)
			rt.loop.Start()
			defer rt.loop.Stop()

			fd := int(os.Stdin.Fd())
			if !term.IsTerminal(fd) {
				return replPlain(rt, os.Stdin, cmd.OutOrStdout(), timeout)
			}
			return replTerminal(rt, fd, timeout)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Maximum time for a single evaluation")
	return cmd
}

func replTerminal(rt *scriptRuntime, fd int, timeout time.Duration) error {
	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	defer term.Restore(fd, state)

	rw := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	t := term.NewTerminal(rw, replPrompt)
	if w, h, err := term.GetSize(fd); err == nil {
		_ = t.SetSize(w, h)
	}

	fmt.Fprintln(t, `adae REPL. Globals: Engine, Timestamp, config. Type .exit or press Ctrl-D to leave.`)
	for {
		line, err := t.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if done := replLine(rt, t, line, timeout); done {
			return nil
		}
	}
}

func replPlain(rt *scriptRuntime, in io.Reader, out io.Writer, timeout time.Duration) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if done := replLine(rt, out, sc.Text(), timeout); done {
			return nil
		}
	}
	return sc.Err()
}

// replLine evaluates one input line. It reports true when the session ends.
func replLine(rt *scriptRuntime, out io.Writer, line string, timeout time.Duration) bool {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return false
	case ".exit", ".quit":
		return true
	}
	text, err := rt.eval(line, timeout)
	if err != nil {
		fmt.Fprintln(out, "Uncaught "+err.Error())
		return false
	}
	if text != "" {
		fmt.Fprintln(out, text)
	}
	return false
}
