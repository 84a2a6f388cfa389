package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dop251/goja"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		globals   bool
		keepAlive bool
	)
	cmd := &cobra.Command{
		Use:   "run <script.js>",
		Short: "Execute a JavaScript file with the adae module available",
		Long: `Execute a JavaScript file. The engine bindings are available through
require("adae"). With --globals they are also installed as globals.

The command returns once the event loop is idle. Scripts that await crash
notifications or debug output should pass --keep-alive and are stopped
with an interrupt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.runtime()
			if err != nil {
				return err
			}
			cfg, _ := ctx.ensureConfig()

			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve script path: %w", err)
			}
			folders := append([]string{filepath.Dir(path)}, cfg.Scripts.Paths...)
			rt := newScriptRuntime(app, folders, globals)

			app.Logger().Info("running script", zap.String("path", path))
			if !keepAlive {
				return rt.runFile(path)
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt.loop.Start()
			defer rt.loop.Stop()
			src, err := readScript(path)
			if err != nil {
				return err
			}
			errs := make(chan error, 1)
			rt.loop.RunOnLoop(func(vm *goja.Runtime) {
				_, err := vm.RunScript(filepath.Base(path), src)
				errs <- scriptError(err)
			})
			if err := <-errs; err != nil {
				return err
			}
			<-sigCtx.Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&globals, "globals", false, "Install the module exports as globals")
	cmd.Flags().BoolVar(&keepAlive, "keep-alive", false, "Keep the event loop running until interrupted")
	return cmd
}
