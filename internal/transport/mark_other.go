//go:build !linux

package transport

import "errors"

func (c *Conn) SetMark(mark uint) error {
	return errors.New("setting SO_MARK socket option is not supported on this platform")
}
