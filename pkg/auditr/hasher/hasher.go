// Package hasher computes the content digests recorded in snapshots.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// ChunkSize is the read buffer size. Progress is reported once per chunk.
const ChunkSize = 1 << 20

// Progress receives the number of bytes consumed by each read.
type Progress func(n int64)

// File returns the lowercase hex SHA-256 of the file at path.
func File(path string, onRead Progress) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sum, err := Reader(f, onRead)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return sum, nil
}

// Reader hashes r to EOF in ChunkSize reads.
func Reader(r io.Reader, onRead Progress) (string, error) {
	h := sha256.New()
	buf := make([]byte, ChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
			if onRead != nil {
				onRead(int64(n))
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
