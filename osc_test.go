package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOSC_Title(t *testing.T) {
	res := decode(1, 10, "\x1b]0;Test\x07")
	assert.Equal(t, []string{"Test"}, res.titles)

	res.decode("\x1b]2;Testing;123\x1b\\")
	assert.Equal(t, []string{"Test", "Testing;123"}, res.titles)

	// 8-bit string terminator
	res.decode("\x1b]2;8bit\u009c")
	assert.Equal(t, "8bit", res.titles[2])
	assert.Equal(t, "", res.buffer.Text())
}

func TestOSC_IconName(t *testing.T) {
	var icon, title string
	b := NewBuffer(1, 10)
	d := NewDecoder(nil, Callbacks{
		Title:    func(s string) { title = s },
		IconName: func(s string) { icon = s },
	})

	d.Decode([]byte("\x1b]1;icon\x07"), b)
	assert.Equal(t, "icon", icon)
	assert.Equal(t, "", title)

	d.Decode([]byte("\x1b]0;both\x07"), b)
	assert.Equal(t, "both", icon)
	assert.Equal(t, "both", title)
}

func TestOSC_EndedByEscape(t *testing.T) {
	res := decode(2, 10, "\x1b]2;abc\x1b[2;2Hx")
	assert.Equal(t, []string{"abc"}, res.titles)
	assert.Equal(t, "\n x", res.buffer.Text())
}

func TestOSC_Directory(t *testing.T) {
	var dirs []string
	b := NewBuffer(1, 10)
	d := NewDecoder(nil, Callbacks{Directory: func(s string) { dirs = append(dirs, s) }})

	d.Decode([]byte("\x1b]7;file://host/home/user\x07"), b)
	d.Decode([]byte("\x1b]7;file:///tmp/with%20space\x07"), b)
	d.Decode([]byte("\x1b]7;/plain/path\x07"), b)
	d.Decode([]byte("\x1b]7;relative\x07"), b)
	assert.Equal(t, []string{"/home/user", "/tmp/with space", "/plain/path"}, dirs)
}

func TestOSC_ShellMark(t *testing.T) {
	var marks []string
	b := NewBuffer(1, 10)
	d := NewDecoder(nil, Callbacks{ShellMark: func(s string) { marks = append(marks, s) }})

	d.Decode([]byte("\x1b]133;A\x07\x1b]133;D;0\x07\x1b]133;Z\x07"), b)
	assert.Equal(t, []string{"A", "D;0"}, marks)
}

func TestOSC_ColourRequestsIgnored(t *testing.T) {
	res := decode(1, 10, "\x1b]4;1;rgb:ff/00/00\x07\x1b]10;?\x07\x1b]104\x07ok")
	assert.Empty(t, res.anomalies)
	assert.Empty(t, res.replies.String())
	assert.Equal(t, "ok", res.buffer.Text())
}

func TestOSCHandler(t *testing.T) {
	res := newDecodeResult(1, 10)

	var receivedData string
	res.decoder.RegisterOSCHandler(42, func(data string) {
		receivedData = data
	})

	res.decode("\x1b]42;test data\x07")
	assert.Equal(t, "test data", receivedData)
	assert.Empty(t, res.anomalies)
}

func TestOSCHandlerOverride(t *testing.T) {
	res := newDecodeResult(1, 10)

	var customTitle string
	res.decoder.RegisterOSCHandler(0, func(data string) {
		customTitle = data
	})

	res.decode("\x1b]0;Custom Title\x07")
	assert.Equal(t, "Custom Title", customTitle)
	// the built-in title handling was replaced
	assert.Empty(t, res.titles)
}

func TestAPCHandler(t *testing.T) {
	res := newDecodeResult(1, 10)

	var short, long string
	res.decoder.RegisterAPCHandler("f", func(arg string) { short = arg })
	res.decoder.RegisterAPCHandler("foo", func(arg string) { long = arg })

	res.decode("\x1b_foobar\x1b\\")
	assert.Equal(t, "bar", long)
	assert.Equal(t, "", short)

	res.decode("\x1b_fizz\x1b\\ok")
	assert.Equal(t, "izz", short)
	assert.Equal(t, "ok", res.buffer.Text())

	res.decode("\x1b_unknown\x1b\\")
	assert.Contains(t, res.anomalies, AnomalyUnknownString)
}

func TestIgnoredStrings(t *testing.T) {
	// SOS and PM are consumed without effect
	res := decode(1, 10, "\x1bXsos\x1b\\\x1b^pm\x1b\\ok")
	assert.Equal(t, "ok", res.buffer.Text())
	assert.Empty(t, res.anomalies)
}

func TestDCS_TmuxPassthrough(t *testing.T) {
	res := decode(2, 10, "\x1bPtmux;\x1b\x1b]2;inner\x1b\x1b\\\x1b\\")
	assert.Equal(t, []string{"inner"}, res.titles)

	res = decode(2, 10, "\x1bPtmux;\x1b\x1b[31mred\x1b\\")
	assert.Equal(t, "red", res.buffer.Text())
	assert.Equal(t, IndexedColor(1), res.buffer.Cell(0, 0).Attr.Foreground)
}
