//go:build !windows

package main

import (
	"log"
	"runtime"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"

	terminal "github.com/fyne-io/vtengine"
	"github.com/fyne-io/vtengine/display/fynedisplay"
)

const windowTitle = "VT Terminal"

func setupListener(t *terminal.Terminal) {
	listen := make(chan terminal.Config, 1)
	go func() {
		for config := range listen {
			log.Printf("Terminal %dx%d %q", config.Columns, config.Rows, config.Title)
		}
	}()
	t.AddListener(listen)
}

func runFyne(o *options, args []string) error {
	a := app.NewWithID("io.fyne.vtterm")
	th := fynedisplay.NewTheme(theme.DefaultTheme(), o.fontSize)
	a.Settings().SetTheme(th)

	w, err := newTerminalWindow(a, th, o, args)
	if err != nil {
		return err
	}
	w.ShowAndRun()
	return nil
}

func newTerminalWindow(a fyne.App, th *fynedisplay.Theme, o *options, args []string) (fyne.Window, error) {
	w := a.NewWindow(windowTitle)
	w.SetPadded(false)

	d, err := fynedisplay.New(w, th)
	if err != nil {
		return nil, err
	}
	t, err := terminal.New(d, o.terminalOptions(args)...)
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	if o.debug {
		setupListener(t)
	}

	w.SetContent(d.Widget())
	cell := fyne.MeasureText("M", th.FontSize(), fyne.TextStyle{Monospace: true})
	w.Resize(fyne.NewSize(cell.Width*float32(o.cols), cell.Height*float32(o.rows)))
	w.Canvas().Focus(d.Widget().(fyne.Focusable))
	w.SetOnClosed(d.RequestClose)

	newTerm := func(_ fyne.Shortcut) {
		nw, err := newTerminalWindow(a, th, o, args)
		if err != nil {
			fyne.LogError("Failed to open terminal", err)
			return
		}
		nw.Show()
	}
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyN, Modifier: fyne.KeyModifierControl | fyne.KeyModifierShift}, newTerm)
	if runtime.GOOS == "darwin" {
		w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyN, Modifier: fyne.KeyModifierSuper}, newTerm)
	}
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyEqual, Modifier: fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift},
		func(_ fyne.Shortcut) {
			th.SetFontSize(th.FontSize() + 1)
			a.Settings().SetTheme(th)
		})
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyMinus, Modifier: fyne.KeyModifierShortcutDefault},
		func(_ fyne.Shortcut) {
			th.SetFontSize(th.FontSize() - 1)
			a.Settings().SetTheme(th)
		})

	go func() {
		err := t.RunLocalShell()
		if err != nil {
			fyne.LogError("Failure in terminal", err)
		}
		fyne.Do(w.Close)
	}()

	return w, nil
}
