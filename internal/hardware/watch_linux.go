//go:build linux

package hardware

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

const inputDir = "/dev/input"

// Watch reports joystick device nodes as they appear. Every existing
// js device is reported first, then creations under /dev/input until
// the context is canceled. onAttach runs on the watcher goroutine.
//
// Watch blocks; callers run it on its own goroutine.
func Watch(ctx context.Context, onAttach func(path string)) error {
	return watch(ctx, inputDir, onAttach)
}

func watch(ctx context.Context, dir string, onAttach func(path string)) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if isJoystickNode(entry.Name()) {
			onAttach(filepath.Join(dir, entry.Name()))
		}
	}

	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC)
	if err != nil {
		return err
	}

	// The fd is closed from two places: the cancellation goroutine (to
	// unblock the read below) and the return path. It must close
	// exactly once; a second close could hit a recycled descriptor
	// number belonging to an unrelated open elsewhere in the process.
	// Closing it also removes the inotify watch.
	var closeOnce sync.Once
	closeFd := func() { closeOnce.Do(func() { unix.Close(fd) }) }
	defer closeFd()

	if _, err := unix.InotifyAddWatch(fd, dir, unix.IN_CREATE); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeFd()
		case <-done:
		}
	}()

	buf := make([]byte, 4096)
	for {
		n, err := unix.Read(fd, buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return err
		}

		var offset uint32
		for offset+unix.SizeofInotifyEvent <= uint32(n) {
			event := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
			nameEnd := offset + unix.SizeofInotifyEvent + event.Len
			name := cString(buf[offset+unix.SizeofInotifyEvent : nameEnd])
			if event.Mask&unix.IN_CREATE != 0 && isJoystickNode(name) {
				onAttach(filepath.Join(inputDir, name))
			}
			offset = nameEnd
		}
	}
}

// isJoystickNode matches the kernel's js device naming.
func isJoystickNode(name string) bool {
	if !strings.HasPrefix(name, "js") {
		return false
	}
	for _, c := range name[2:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(name) > 2
}
