//go:build unix

package finder

import (
	"os"
	"syscall"
)

func dupFD(fd int) (int, error)         { return syscall.Dup(fd) }
func dup2FD(oldfd, newfd int) error     { return syscall.Dup2(oldfd, newfd) }
func restoreFD(fd, saved int) {
	_ = syscall.Dup2(saved, fd)
	_ = syscall.Close(saved)
}

// posixSilencer duplicates fds 1/2 over /dev/null for the duration of fn,
// then restores the originals, matching the original's fd-dup approach to
// silencing a C library's direct writes to the process's stdout/stderr.
type posixSilencer struct{}

// NewOutputSilencer returns the POSIX fd-dup silencer on unix platforms.
func NewOutputSilencer() OutputSilencer { return posixSilencer{} }

func (posixSilencer) Silence(fn func() error) error {
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return fn()
	}
	defer devNull.Close()

	savedStdout, err1 := dupFD(int(os.Stdout.Fd()))
	savedStderr, err2 := dupFD(int(os.Stderr.Fd()))
	if err1 != nil || err2 != nil {
		return fn()
	}
	defer restoreFD(int(os.Stdout.Fd()), savedStdout)
	defer restoreFD(int(os.Stderr.Fd()), savedStderr)

	_ = dup2FD(int(devNull.Fd()), int(os.Stdout.Fd()))
	_ = dup2FD(int(devNull.Fd()), int(os.Stderr.Fd()))

	return fn()
}
