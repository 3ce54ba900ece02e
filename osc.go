package terminal

import (
	"log"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// OSCHandler handles an OSC command, receiving everything after the first ';'.
type OSCHandler func(data string)

// APCHandler handles an APC command, receiving the payload after its prefix.
type APCHandler func(arg string)

// RegisterOSCHandler registers a handler for the given OSC command number,
// replacing any built-in behaviour for it.
func (d *Decoder) RegisterOSCHandler(code int, handler OSCHandler) {
	d.oscHandlers[code] = handler
}

// RegisterAPCHandler registers a APC handler for the given APC command string.
func (d *Decoder) RegisterAPCHandler(apc string, handler APCHandler) {
	d.apcHandlers[apc] = handler
}

func (d *Decoder) handleOSC(code string) {
	if len(code) == 0 {
		return
	}

	// Parse the command number and data
	parts := strings.SplitN(code, ";", 2)
	commandNum, err := strconv.Atoi(parts[0])
	if err != nil {
		d.anomaly(AnomalyUnknownOSC, code)
		return
	}
	data := ""
	if len(parts) == 2 {
		data = parts[1]
	}

	if handler, ok := d.oscHandlers[commandNum]; ok {
		handler(data)
		return
	}

	switch commandNum {
	case 0:
		// set icon name and window title
		d.setIconName(data)
		d.setTitle(data)
	case 1:
		d.setIconName(data)
	case 2:
		d.setTitle(data)
	case 7:
		d.setDirectory(data)
	case 133:
		// Shell integration sequences for prompt marking
		d.handleShellMark(data)
	case 4, 10, 11, 12, 104, 110, 111, 112:
		// palette and default colour queries, the palette belongs to the renderer
		if d.debug {
			log.Println("Ignoring OSC colour request:", code)
		}
	default:
		d.anomaly(AnomalyUnknownOSC, code)
	}
}

func (d *Decoder) setTitle(title string) {
	if d.callbacks.Title != nil {
		d.callbacks.Title(title)
	}
}

func (d *Decoder) setIconName(name string) {
	if d.callbacks.IconName != nil {
		d.callbacks.IconName(name)
	}
}

// setDirectory reports the shell's working directory, sent as a file URI.
// It is never used to change the engine's own directory.
func (d *Decoder) setDirectory(uri string) {
	dir := uri
	if u, err := url.Parse(uri); err == nil && u.Scheme == "file" {
		dir = u.Path
	}
	if !strings.HasPrefix(dir, "/") {
		if d.debug {
			log.Println("Invalid directory report:", uri)
		}
		return
	}
	if d.callbacks.Directory != nil {
		d.callbacks.Directory(dir)
	}
}

// handleShellMark handles OSC 133 prompt marking: A prompt start, B prompt end,
// C command output start and D command output end, optionally with an exit code.
func (d *Decoder) handleShellMark(data string) {
	kind, _, _ := strings.Cut(data, ";")
	switch kind {
	case "A", "B", "C", "D":
		if d.debug {
			log.Println("Shell integration:", data)
		}
		if d.callbacks.ShellMark != nil {
			d.callbacks.ShellMark(data)
		}
	default:
		if d.debug {
			log.Println("OSC 133 sequence not implemented:", data)
		}
	}
}

func (d *Decoder) handleAPC(code string) {
	// longest prefix wins so that handler order is stable
	prefixes := make([]string, 0, len(d.apcHandlers))
	for p := range d.apcHandlers {
		if strings.HasPrefix(code, p) {
			prefixes = append(prefixes, p)
		}
	}
	if len(prefixes) == 0 {
		d.anomaly(AnomalyUnknownString, "\x1b_"+code)
		return
	}
	sort.Slice(prefixes, func(i, j int) bool {
		return len(prefixes[i]) > len(prefixes[j])
	})
	p := prefixes[0]
	d.apcHandlers[p](code[len(p):])
}

// handleDCS processes Device Control String data (between ESC P ... ST)
// Implements tmux passthrough: "tmux;" prefix means the rest is a nested sequence
func (d *Decoder) handleDCS(code string, b *Buffer) {
	if inner, ok := strings.CutPrefix(code, "tmux;"); ok {
		d.Decode([]byte(inner), b)
		return
	}
	d.anomaly(AnomalyUnknownString, "\x1bP"+code)
}
