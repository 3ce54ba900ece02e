//go:build !windows

package wakeq

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func readable(t *testing.T, fd int) bool {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 0)
	require.NoError(t, err)
	return n > 0 && fds[0].Revents&unix.POLLIN != 0
}

func TestQueue_PushDrain(t *testing.T) {
	q, err := New[int]()
	require.NoError(t, err)
	defer q.Close()

	assert.False(t, readable(t, q.Fd()))

	q.Push(1, 2)
	q.Push(3)
	assert.True(t, readable(t, q.Fd()))
	assert.Equal(t, 3, q.Len())

	assert.Equal(t, []int{1, 2, 3}, q.Drain())
	assert.False(t, readable(t, q.Fd()))
	assert.Nil(t, q.Drain())
}

func TestQueue_Concurrent(t *testing.T) {
	q, err := New[int]()
	require.NoError(t, err)
	defer q.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Push(j)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, q.Drain(), 800)
	assert.False(t, readable(t, q.Fd()))
}

func TestQueue_Close(t *testing.T) {
	q, err := New[string]()
	require.NoError(t, err)

	q.Push("a")
	require.NoError(t, q.Close())
	assert.Equal(t, -1, q.Fd())
	assert.Nil(t, q.Drain())

	q.Push("b")
	assert.Equal(t, 0, q.Len())
	assert.NoError(t, q.Close())
}
