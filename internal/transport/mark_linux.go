package transport

import (
	"errors"
	"net"
	"os"
	"reflect"
	"syscall"

	"golang.org/x/net/icmp"
)

// getFD gets the system file descriptor for an icmp.PacketConn
func getFD(c *icmp.PacketConn) (uintptr, error) {
	v := reflect.ValueOf(c).Elem().FieldByName("c").Elem()
	if v.Elem().Kind() != reflect.Struct {
		return 0, errors.New("invalid type")
	}

	fd := v.Elem().FieldByName("conn").FieldByName("fd")
	if fd.Elem().Kind() != reflect.Struct {
		return 0, errors.New("invalid type")
	}

	pfd := fd.Elem().FieldByName("pfd")
	if pfd.Kind() != reflect.Struct {
		return 0, errors.New("invalid type")
	}

	return uintptr(pfd.FieldByName("Sysfd").Int()), nil
}

// SetMark sets SO_MARK on every open socket, so probe traffic can be
// classified by netfilter or policy routing rules.
func (c *Conn) SetMark(mark uint) error {
	for _, pc := range []net.PacketConn{c.conn4, c.conn6} {
		if pc == nil {
			continue
		}

		ipc, ok := pc.(*icmp.PacketConn)
		if !ok {
			return errors.New("invalid connection type")
		}

		fd, err := getFD(ipc)
		if err != nil {
			return err
		}

		err = os.NewSyscallError(
			"setsockopt",
			syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_MARK, int(mark)),
		)
		if err != nil {
			return err
		}
	}

	return nil
}
