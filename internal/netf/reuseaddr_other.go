//go:build !unix

package netf

import "syscall"

func reuseAddr(_, _ string, _ syscall.RawConn) error {
	return nil
}
