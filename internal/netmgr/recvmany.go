package netmgr

import (
	"time"

	"github.com/flightos/fsw/internal/elements"
	"golang.org/x/sys/unix"
)

// RecvMany waits up to timeoutNs for datagrams on each of peers' channels.
// peers, bufs, and counts must be the same length; counts[i] is set to the
// number of datagrams consumed from peers[i]'s channel. If more than one
// datagram arrives on a channel before the timeout elapses, only the most
// recent payload is kept in bufs[i]. RxCounterElem is incremented by the
// total number of datagrams consumed across all channels.
func (m *Manager) RecvMany(timeoutNs uint64, peers []elements.Node, bufs [][]byte, counts []uint32) error {
	if timeoutNs > MaxTimeoutNs {
		return newTimeoutTooLargeError("timeout exceeds MaxTimeoutNs")
	}
	if len(peers) != len(bufs) || len(peers) != len(counts) {
		return newVectorSizeMismatchError("peers, bufs, and counts must be the same length")
	}

	chans := make([]*channel, len(peers))
	for i, p := range peers {
		if len(bufs[i]) == 0 {
			return newEmptyBufferError("recv buffer is empty")
		}
		ch, ok := m.channels[p]
		if !ok {
			return newUnknownNodeError("no channel for peer")
		}
		chans[i] = ch
		counts[i] = 0
	}

	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return newSelectError(err.Error())
	}
	defer unix.Close(epfd)

	fdToIndex := make(map[int32]int, len(chans))
	for i, ch := range chans {
		fdToIndex[int32(ch.fd)] = i
		ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(ch.fd)}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, ch.fd, &ev); err != nil {
			return newSelectError(err.Error())
		}
	}

	deadline := time.Now().Add(time.Duration(timeoutNs))
	var totalRecvd uint32
	events := make([]unix.EpollEvent, len(chans))

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		// epoll's millisecond timeout granularity rounds up so we never
		// return before the requested duration has elapsed.
		timeoutMs := int((remaining + 999_999*time.Nanosecond) / time.Millisecond)

		n, err := unix.EpollWait(epfd, events, timeoutMs)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return newSelectError(err.Error())
		}
		if n == 0 {
			break
		}

		for i := 0; i < n; i++ {
			idx, ok := fdToIndex[events[i].Fd]
			if !ok {
				continue
			}
			ch := chans[idx]
			for {
				recvd, err := drainOne(ch.fd, bufs[idx])
				if err != nil {
					return newRecvError(err.Error())
				}
				if !recvd {
					break
				}
				counts[idx]++
				totalRecvd++
			}
		}
	}

	if totalRecvd > 0 {
		if err := m.dv.IncrementBy(m.rxElem, totalRecvd); err != nil {
			return err
		}
	}
	return nil
}

// drainOne performs one non-blocking receive, reporting false once the
// socket has no more queued datagrams.
func drainOne(fd int, buf []byte) (bool, error) {
	n, _, err := unix.Recvfrom(fd, buf, unix.MSG_DONTWAIT)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return false, nil
		}
		return false, err
	}
	if n != len(buf) {
		return false, newUnexpectedSizeError("received datagram length did not match buffer length")
	}
	return true, nil
}
