//go:build !windows

package main

import (
	"github.com/fyne-io/vtengine/display/tcelldisplay"

	terminal "github.com/fyne-io/vtengine"
)

func runTcell(o *options, args []string) error {
	d, err := tcelldisplay.New(nil)
	if err != nil {
		return err
	}

	t, err := terminal.New(d, o.terminalOptions(args)...)
	if err != nil {
		_ = d.Close()
		return err
	}
	return t.RunLocalShell()
}
