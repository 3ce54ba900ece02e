package terminal

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

type charSet int

const (
	charSetASCII charSet = iota
	charSetDECSpecialGraphics
	charSetUK
)

// designate maps the final byte of ESC ( x to a character set.
var designate = map[rune]charSet{
	'B': charSetASCII,
	'0': charSetDECSpecialGraphics,
	'A': charSetUK,
}

func (c charSet) translate(r rune) rune {
	switch c {
	case charSetDECSpecialGraphics:
		if m, ok := decSpecialGraphics[r]; ok {
			return m
		}
	case charSetUK:
		if r == '#' {
			return '£'
		}
	}
	return r
}

// decSpecialGraphics is for ESC(0 graphics mode
// https://en.wikipedia.org/wiki/DEC_Special_Graphics
var decSpecialGraphics = map[rune]rune{
	'`': '◆', // filled in diamond
	'a': '▒', // filled in box
	'b': '␉', // horizontal tab symbol
	'c': '␌', // form feed symbol
	'd': '␍', // carriage return symbol
	'e': '␊', // line feed symbol
	'f': '°', // degree symbol
	'g': '±', // plus-minus sign
	'h': '␤', // new line symbol
	'i': '␋', // vertical tab symbol
	'j': '┘', // bottom right
	'k': '┐', // top right
	'l': '┌', // top left
	'm': '└', // bottom left
	'n': '┼', // cross
	'o': '⎺', // scan line 1
	'p': '⎻', // scan line 3
	'q': '─', // scan line 5
	'r': '⎼', // scan line 7
	's': '⎽', // scan line 9
	't': '├', // vertical and right
	'u': '┤', // vertical and left
	'v': '┴', // horizontal and up
	'w': '┬', // horizontal and down
	'x': '│', // vertical bar
	'y': '≤', // less or equal
	'z': '≥', // greater or equal
	'{': 'π', // pi
	'|': '≠', // not equal
	'}': '£', // Pounds currency symbol
	'~': '·', // centered dot
}

// legacyCharmaps are the 8-bit encodings a decoder can be switched to
// instead of UTF-8.
var legacyCharmaps = map[string]*charmap.Charmap{
	"latin1":     charmap.ISO8859_1,
	"iso-8859-1": charmap.ISO8859_1,
	"latin9":     charmap.ISO8859_15,
	"cp1252":     charmap.Windows1252,
	"cp437":      charmap.CodePage437,
	"koi8-r":     charmap.KOI8R,
}

// lookupCharmap returns the 8-bit charmap called name, or nil for UTF-8.
func lookupCharmap(name string) (*charmap.Charmap, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "utf-8" || name == "utf8" {
		return nil, nil
	}
	cm, ok := legacyCharmaps[name]
	if !ok {
		return nil, fmt.Errorf("unknown charset %q", name)
	}
	return cm, nil
}
