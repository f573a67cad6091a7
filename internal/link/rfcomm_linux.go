//go:build linux

package link

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// parseBDAddr converts XX:XX:XX:XX:XX:XX into the kernel's little-endian bdaddr.
func parseBDAddr(s string) ([6]uint8, error) {
	var out [6]uint8
	hw, err := net.ParseMAC(s)
	if err != nil || len(hw) != 6 {
		return out, fmt.Errorf("invalid bluetooth address %q", s)
	}
	for i := range hw {
		out[5-i] = hw[i]
	}
	return out, nil
}

func formatBDAddr(a [6]uint8) string {
	parts := make([]string, 6)
	for i := range a {
		parts[5-i] = fmt.Sprintf("%02X", a[i])
	}
	return strings.Join(parts, ":")
}

func rfcommSocket() (int, error) {
	return unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.BTPROTO_RFCOMM)
}

type rfcommConn struct {
	*os.File
	peer string
}

func (c *rfcommConn) Peer() string { return c.peer }

func dialRFCOMM(ctx context.Context, address string, channel uint8) (Conn, error) {
	bd, err := parseBDAddr(address)
	if err != nil {
		return nil, err
	}
	fd, err := rfcommSocket()
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}

	err = unix.Connect(fd, &unix.SockaddrRFCOMM{Addr: bd, Channel: channel})
	if err != nil && !errors.Is(err, unix.EINPROGRESS) {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("connect", err)
	}

	// The poller takes over the non-blocking fd from here.
	f := os.NewFile(uintptr(fd), "rfcomm:"+address)
	if d, ok := ctx.Deadline(); ok {
		_ = f.SetWriteDeadline(d)
	}
	stop := context.AfterFunc(ctx, func() { _ = f.SetWriteDeadline(time.Now()) })
	defer stop()

	rc, err := f.SyscallConn()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	var connErr error
	werr := rc.Write(func(fd uintptr) bool {
		if _, err := unix.Getpeername(int(fd)); err == nil {
			return true
		}
		soErr, err := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_ERROR)
		if err != nil {
			connErr = err
			return true
		}
		if soErr != 0 {
			connErr = unix.Errno(soErr)
			return true
		}
		return false
	})
	if werr == nil {
		werr = connErr
	}
	if werr != nil {
		_ = f.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, os.NewSyscallError("connect", werr)
	}

	_ = f.SetWriteDeadline(time.Time{})
	return &rfcommConn{File: f, peer: address}, nil
}

type rfcommListener struct {
	f    *os.File
	addr string
}

func listenRFCOMM(address string, channel uint8) (Listener, error) {
	var bd [6]uint8 // BDADDR_ANY
	if address != "" {
		var err error
		if bd, err = parseBDAddr(address); err != nil {
			return nil, err
		}
	}

	fd, err := rfcommSocket()
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrRFCOMM{Addr: bd, Channel: channel}); err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("bind", err)
	}
	if err := unix.Listen(fd, 1); err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("listen", err)
	}

	return &rfcommListener{
		f:    os.NewFile(uintptr(fd), "rfcomm-listener"),
		addr: fmt.Sprintf("%s/%d", formatBDAddr(bd), channel),
	}, nil
}

func (l *rfcommListener) Accept() (Conn, error) {
	rc, err := l.f.SyscallConn()
	if err != nil {
		return nil, err
	}

	var (
		nfd       int
		sa        unix.Sockaddr
		acceptErr error
	)
	rerr := rc.Read(func(fd uintptr) bool {
		nfd, sa, acceptErr = unix.Accept4(int(fd), unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		return !errors.Is(acceptErr, unix.EAGAIN)
	})
	if rerr != nil {
		return nil, rerr
	}
	if acceptErr != nil {
		return nil, os.NewSyscallError("accept", acceptErr)
	}

	peer := "unknown"
	if rsa, ok := sa.(*unix.SockaddrRFCOMM); ok {
		peer = formatBDAddr(rsa.Addr)
	}
	return &rfcommConn{File: os.NewFile(uintptr(nfd), "rfcomm:"+peer), peer: peer}, nil
}

func (l *rfcommListener) Close() error { return l.f.Close() }
func (l *rfcommListener) Addr() string { return l.addr }
