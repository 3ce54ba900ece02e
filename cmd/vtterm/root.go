//go:build !windows

package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	terminal "github.com/fyne-io/vtengine"
)

type options struct {
	renderer        string
	shell           string
	rows, cols      uint
	charset         string
	fontSize        float32
	debug           bool
	reportAnomalies bool
	logFile         string
}

func addFlags(fs *pflag.FlagSet, o *options) {
	fs.StringVarP(&o.renderer, "renderer", "r", "fyne", "renderer to use, fyne or tcell")
	fs.StringVarP(&o.shell, "shell", "s", "", "shell to run, defaults to $SHELL")
	fs.UintVar(&o.rows, "rows", 24, "initial number of rows")
	fs.UintVar(&o.cols, "cols", 80, "initial number of columns")
	fs.StringVar(&o.charset, "charset", "", "legacy 8-bit charset of the shell output, e.g. latin1 or cp437")
	fs.Float32Var(&o.fontSize, "font-size", 12, "text size of the fyne renderer")
	fs.BoolVarP(&o.debug, "debug", "d", false, "show terminal debug messages")
	fs.BoolVar(&o.reportAnomalies, "report-anomalies", false, "log every escape sequence that was discarded")
	fs.StringVar(&o.logFile, "log-file", "", "write log messages to this file instead of stderr")
}

func newRootCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:           "vtterm [flags] [-- shell arguments]",
		Short:         "A terminal emulator for your shell",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(o, args)
		},
	}
	addFlags(cmd.Flags(), o)
	return cmd
}

func (o *options) terminalOptions(args []string) []terminal.Option {
	opts := []terminal.Option{
		terminal.WithDebug(o.debug),
		terminal.WithSize(o.rows, o.cols),
		terminal.WithCharset(o.charset),
	}
	if o.shell != "" || len(args) > 0 {
		opts = append(opts, terminal.WithShell(o.shell, args...))
	}
	if o.reportAnomalies {
		opts = append(opts, terminal.WithAnomalyPolicy(terminal.AnomalyReport))
	}
	return opts
}

func run(o *options, args []string) error {
	if o.logFile != "" {
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		log.SetOutput(f)
	}

	switch o.renderer {
	case "fyne":
		return runFyne(o, args)
	case "tcell":
		if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("the tcell renderer needs to run in a terminal")
		}
		if o.logFile == "" {
			// anything printed would draw over the screen
			log.SetOutput(io.Discard)
		}
		return runTcell(o, args)
	}
	return fmt.Errorf("unknown renderer %q, use fyne or tcell", o.renderer)
}
