//go:build !windows

package terminal

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func openTestSession(t *testing.T, script string) *Session {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh to run")
	}
	s, err := OpenSession(SessionConfig{
		Shell:   "/bin/sh",
		Args:    []string{"-c", script},
		Dir:     os.TempDir(),
		Rows:    10,
		Columns: 30,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func readAll(s *Session) (string, error) {
	var out strings.Builder
	buf := make([]byte, 256)
	for {
		n, err := s.Read(buf)
		out.Write(buf[:n])
		if err != nil {
			return out.String(), err
		}
	}
}

func TestSession_OutputAndExit(t *testing.T) {
	s := openTestSession(t, "printf 'hello %s' \"$TERM\"; exit 3")
	assert.Greater(t, s.Pid(), 0)
	assert.GreaterOrEqual(t, s.Fd(), 0)

	out, err := readAll(s)
	assert.Contains(t, out, "hello xterm-256color")

	var ioErr *IoError
	require.True(t, errors.As(err, &ioErr), "%v", err)
	assert.Equal(t, "read", ioErr.Op)

	assert.Eventually(t, s.Exited, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 3, s.ExitCode())
}

func TestSession_InitialSizeAndResize(t *testing.T) {
	s := openTestSession(t, "sleep 5")

	rows, cols, err := pty.Getsize(s.master)
	require.NoError(t, err)
	assert.Equal(t, 10, rows)
	assert.Equal(t, 30, cols)

	require.NoError(t, s.Resize(40, 100, 800, 600))
	rows, cols, err = pty.Getsize(s.master)
	require.NoError(t, err)
	assert.Equal(t, 40, rows)
	assert.Equal(t, 100, cols)
	assert.False(t, s.Exited())
	assert.Equal(t, -1, s.ExitCode())
}

func TestSession_WriteReachesShell(t *testing.T) {
	s := openTestSession(t, "read line; echo \"got:$line\"")

	_, err := s.Write([]byte("ping\r"))
	require.NoError(t, err)

	out, _ := readAll(s)
	assert.Contains(t, out, "got:ping")
}

func TestSession_Close(t *testing.T) {
	s := openTestSession(t, "sleep 30")
	require.NoError(t, s.Close())
	assert.True(t, s.Exited())

	// closing again does nothing
	assert.NoError(t, s.Close())

	_, err := s.Read(make([]byte, 8))
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = s.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, s.Resize(1, 1, 0, 0), ErrSessionClosed)
}

func TestSession_SpawnFailure(t *testing.T) {
	_, err := OpenSession(SessionConfig{Shell: "/nonexistent/shell"})
	var spawn *SpawnError
	require.True(t, errors.As(err, &spawn))
	assert.Contains(t, spawn.Op, "/nonexistent/shell")
}

func TestShellGone(t *testing.T) {
	term := &Terminal{pty: &Session{exited: true}}
	assert.True(t, term.shellGone(&IoError{Op: "read", Err: unix.EIO}))
}
