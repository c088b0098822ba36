package ingest

import (
	"bytes"
	"io"

	"github.com/zeebo/xxh3"
)

// fingerprint identifies the beginning of a file. It covers at most
// HeadBytes, and only as many bytes as the file had when it was taken, so a
// short file that grows keeps the same fingerprint.
type fingerprint struct {
	sum uint64
	n   int64
}

func headPrint(r io.ReaderAt, size int64, max int) (fingerprint, error) {
	n := min(size, int64(max))
	buf := make([]byte, n)
	if _, err := r.ReadAt(buf, 0); err != nil && err != io.EOF {
		return fingerprint{}, err
	}
	return fingerprint{sum: xxh3.Hash(buf), n: n}, nil
}

// matches reports whether the file still starts with the fingerprinted bytes.
func (fp fingerprint) matches(r io.ReaderAt, size int64) bool {
	if size < fp.n {
		return false
	}
	got, err := headPrint(r, fp.n, int(fp.n))
	return err == nil && got.sum == fp.sum
}

// countLines counts newline-terminated lines plus a trailing partial line.
func countLines(r io.Reader) (uint64, error) {
	buf := make([]byte, 64<<10)
	var count uint64
	var last byte = '\n'
	for {
		n, err := r.Read(buf)
		if n > 0 {
			count += uint64(bytes.Count(buf[:n], []byte{'\n'}))
			last = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if last != '\n' {
		count++
	}
	return count, nil
}
