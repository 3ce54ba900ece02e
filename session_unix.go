//go:build !windows

package terminal

import (
	"errors"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

const reapTimeout = time.Second

// SessionConfig describes the shell a Session starts.
type SessionConfig struct {
	// Shell is the program to run, defaulting to $SHELL and then /bin/sh.
	Shell string
	Args  []string
	// Dir is the working directory, the current one when empty.
	Dir string
	// Env replaces the inherited environment when not nil.
	// TERM=xterm-256color is always added.
	Env []string

	Rows, Columns uint16
}

// Session is a shell running on a freshly allocated pseudo-terminal.
// It owns the master side and the child process, exactly one of each.
type Session struct {
	cmd    *exec.Cmd
	master *os.File
	fd     int

	mu     sync.Mutex
	closed bool
	exited bool
	status unix.WaitStatus

	closeOnce sync.Once
	closeErr  error
}

// OpenSession starts the configured shell as a session leader with the
// pseudo-terminal slave as its controlling terminal and standard streams.
func OpenSession(cfg SessionConfig) (*Session, error) {
	shell := cfg.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}

	env := cfg.Env
	if env == nil {
		env = os.Environ()
	}
	env = append(env, "TERM=xterm-256color")

	rows, cols := cfg.Rows, cfg.Columns
	if rows == 0 {
		rows = defaultRows
	}
	if cols == 0 {
		cols = defaultColumns
	}

	c := exec.Command(shell, cfg.Args...)
	c.Dir = cfg.Dir
	c.Env = env

	// StartWithSize puts the child in a new session (setsid) and makes the
	// slave its controlling terminal before exec.
	f, err := pty.StartWithSize(c, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return nil, &SpawnError{Op: "start " + shell, Err: err}
	}

	return &Session{cmd: c, master: f, fd: int(f.Fd())}, nil
}

// Fd returns the master descriptor for readiness waits.
func (s *Session) Fd() int {
	return s.fd
}

// Pid returns the process id of the shell.
func (s *Session) Pid() int {
	return s.cmd.Process.Pid
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Read reads shell output from the master side.
// Failures are returned as *IoError and never retried here.
func (s *Session) Read(p []byte) (int, error) {
	if s.isClosed() {
		return 0, ErrSessionClosed
	}
	n, err := s.master.Read(p)
	if err != nil {
		return n, &IoError{Op: "read", Err: err}
	}
	return n, nil
}

// Write sends p to the shell, retrying partial writes until all of it is written.
func (s *Session) Write(p []byte) (int, error) {
	if s.isClosed() {
		return 0, ErrSessionClosed
	}
	written := 0
	for len(p) > 0 {
		n, err := s.master.Write(p)
		written += n
		p = p[n:]
		if err != nil {
			if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
				continue
			}
			return written, &IoError{Op: "write", Err: err}
		}
	}
	return written, nil
}

// Resize tells the kernel terminal driver about a new geometry, which
// signals SIGWINCH to the shell's foreground process group.
func (s *Session) Resize(rows, cols, pixelWidth, pixelHeight int) error {
	if s.isClosed() {
		return &ResizeError{Rows: rows, Cols: cols, Err: ErrSessionClosed}
	}
	err := pty.Setsize(s.master, &pty.Winsize{
		Rows: uint16(rows), Cols: uint16(cols),
		X: uint16(pixelWidth), Y: uint16(pixelHeight)})
	if err != nil {
		return &ResizeError{Rows: rows, Cols: cols, Err: err}
	}
	return nil
}

// Exited reports, without blocking, whether the shell has terminated.
// The first call that sees the exit reaps the child.
func (s *Session) Exited() bool {
	return s.wait(unix.WNOHANG)
}

// ExitCode returns the shell's exit status, or -1 if it is still running
// or was killed by a signal.
func (s *Session) ExitCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exited || !s.status.Exited() {
		return -1
	}
	return s.status.ExitStatus()
}

func (s *Session) wait(options int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exited {
		return true
	}

	pid := s.cmd.Process.Pid
	for {
		var ws unix.WaitStatus
		got, err := unix.Wait4(pid, &ws, options, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			// ECHILD, someone else reaped it
			s.exited = true
			return true
		}
		if got == pid {
			s.exited = true
			s.status = ws
			return true
		}
		return false
	}
}

// Close closes the master descriptor, then hangs up and reaps the shell
// if it is still running. Calling it again does nothing.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.closeErr = s.master.Close()
		if !s.Exited() {
			_ = s.cmd.Process.Signal(unix.SIGHUP)
			s.reap()
		}
		_ = s.cmd.Process.Release()
	})
	return s.closeErr
}

func (s *Session) reap() {
	deadline := time.Now().Add(reapTimeout)
	for !s.Exited() {
		if time.Now().After(deadline) {
			_ = s.cmd.Process.Kill()
			s.wait(0)
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}
