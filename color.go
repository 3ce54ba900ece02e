package terminal

import "log"

// csiGraphicRendition handles SGR, CSI ... m.
func csiGraphicRendition(d *Decoder, b *Buffer) {
	if d.private != 0 {
		// CSI > Ps ; Ps m is xterm's key modifier setup, not a rendition
		if d.debug {
			log.Println("Strange colour mode", d.sequence())
		}
		return
	}

	attr := b.Attribute()
	if d.nparams == 0 {
		b.SetAttribute(Attribute{})
		return
	}
	for i := 0; i < d.nparams; i++ {
		mode := d.param(i, 0)
		subs := d.subParams(i)
		switch mode {
		case 38, 48, 58:
			c, used, ok := d.extendedColor(i, subs)
			i += used
			if !ok {
				d.anomaly(AnomalyMalformedCSI, d.sequence())
				continue
			}
			if mode == 38 {
				attr.Foreground = c
			} else if mode == 48 {
				attr.Background = c
			}
			continue
		case 4:
			// 4:<n> selects an underline style, only on or off is kept
			if subs > 0 {
				if d.param(i+1, 1) == 0 {
					attr.Flags &^= AttrUnderline
				} else {
					attr.Flags |= AttrUnderline
				}
				i += subs
				continue
			}
		}
		i += subs
		d.graphicMode(&attr, mode)
	}
	b.SetAttribute(attr)
}

func (d *Decoder) graphicMode(attr *Attribute, mode int) {
	switch {
	case mode == 0: // Reset - clear all formatting and colors
		*attr = Attribute{}
	case mode == 1:
		attr.Flags |= AttrBold
	case mode == 2:
		attr.Flags |= AttrFaint
	case mode == 3:
		attr.Flags |= AttrItalic
	case mode == 4, mode == 21:
		attr.Flags |= AttrUnderline
	case mode == 5, mode == 6:
		attr.Flags |= AttrBlink
	case mode == 7:
		attr.Flags |= AttrReverse
	case mode == 8:
		attr.Flags |= AttrHidden
	case mode == 9:
		attr.Flags |= AttrStrikethrough
	case mode == 22:
		attr.Flags &^= AttrBold | AttrFaint
	case mode == 23:
		attr.Flags &^= AttrItalic
	case mode == 24:
		attr.Flags &^= AttrUnderline
	case mode == 25:
		attr.Flags &^= AttrBlink
	case mode == 27:
		attr.Flags &^= AttrReverse
	case mode == 28:
		attr.Flags &^= AttrHidden
	case mode == 29:
		attr.Flags &^= AttrStrikethrough
	case mode >= 30 && mode <= 37:
		attr.Foreground = IndexedColor(uint8(mode - 30))
	case mode == 39:
		attr.Foreground = DefaultColor
	case mode >= 40 && mode <= 47:
		attr.Background = IndexedColor(uint8(mode - 40))
	case mode == 49:
		attr.Background = DefaultColor
	case mode >= 90 && mode <= 97:
		attr.Foreground = IndexedColor(uint8(mode - 90 + 8))
	case mode >= 100 && mode <= 107:
		attr.Background = IndexedColor(uint8(mode - 100 + 8))
	default:
		if d.debug {
			log.Println("Unsupported graphics mode", mode)
		}
	}
}

// extendedColor reads the colour after the 38, 48 or 58 at parameter i.
// It accepts "5;n" and "2;r;g;b" with ';' and the ':' forms including the
// optional colour space id. used is how many parameters were consumed after i.
func (d *Decoder) extendedColor(i, subs int) (c Color, used int, ok bool) {
	if subs > 0 {
		switch d.param(i+1, -1) {
		case 5:
			if subs < 2 {
				return c, subs, false
			}
			return IndexedColor(clampByte(d.param(i+2, 0))), subs, true
		case 2:
			first := i + 2
			if subs >= 5 {
				first++ // skip the colour space id
			} else if subs < 4 {
				return c, subs, false
			}
			return RGBColor(clampByte(d.param(first, 0)), clampByte(d.param(first+1, 0)),
				clampByte(d.param(first+2, 0))), subs, true
		}
		return c, subs, false
	}

	remaining := d.nparams - i - 1
	switch d.param(i+1, -1) {
	case 5:
		if remaining < 2 {
			return c, remaining, false
		}
		return IndexedColor(clampByte(d.param(i+2, 0))), 2, true
	case 2:
		if remaining < 4 {
			return c, remaining, false
		}
		return RGBColor(clampByte(d.param(i+2, 0)), clampByte(d.param(i+3, 0)),
			clampByte(d.param(i+4, 0))), 4, true
	}
	if remaining > 0 {
		return c, 1, false
	}
	return c, 0, false
}

func clampByte(v int) uint8 {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}
