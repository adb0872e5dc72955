package utils

import "io"

// maxDrain caps how much of an unread body is discarded before closing.
const maxDrain = 64 << 10

// DrainAndClose discards up to 64KiB of rc and closes it, so the
// underlying HTTP connection can be reused.
func DrainAndClose(rc io.ReadCloser) {
	if rc == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, maxDrain))
	_ = rc.Close()
}
