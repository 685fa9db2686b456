package netio

import (
	"context"
	"fmt"
	"net"
	"syscall"
)

// Dial establishes a stream connection to addr with Nagle disabled.
func Dial(ctx context.Context, addr string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}
	return conn, nil
}

// DialBroadcast opens a datagram socket bound to the IPv4 broadcast address
// on the given port, with SO_BROADCAST enabled.
func DialBroadcast(port int) (net.Conn, error) {
	conn, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: net.IPv4bcast, Port: port})
	if err != nil {
		return nil, fmt.Errorf("dial broadcast :%d: %w", port, err)
	}
	if err := setSockoptInt(conn, syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable broadcast: %w", err)
	}
	return conn, nil
}

// ListenBroadcast opens a datagram socket receiving on the given port.
// SO_REUSEADDR lets multiple local listeners share the broadcast port.
func ListenBroadcast(port int) (net.Conn, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var opErr error
			err := c.Control(func(fd uintptr) {
				opErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return opErr
		},
	}
	pc, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("listen broadcast :%d: %w", port, err)
	}
	return pc.(*net.UDPConn), nil
}

func setSockoptInt(conn *net.UDPConn, level, opt, value int) error {
	rc, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var opErr error
	if err := rc.Control(func(fd uintptr) {
		opErr = syscall.SetsockoptInt(int(fd), level, opt, value)
	}); err != nil {
		return err
	}
	return opErr
}
