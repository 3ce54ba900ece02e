//go:build !windows

package terminal

import "golang.org/x/sys/unix"

const pollReady = unix.POLLIN | unix.POLLHUP | unix.POLLERR

// waitReadable blocks until one of fds is ready, with no timeout.
// Negative descriptors are skipped by the kernel.
func waitReadable(fds []unix.PollFd) error {
	for {
		for i := range fds {
			fds[i].Revents = 0
		}
		_, err := unix.Poll(fds, -1)
		if err == unix.EINTR {
			continue
		}
		return err
	}
}

func pollFd(fd int) unix.PollFd {
	return unix.PollFd{Fd: int32(fd), Events: unix.POLLIN}
}

func ready(fd unix.PollFd) bool {
	return fd.Revents&pollReady != 0
}
