// Package notary computes the identifier under which a document is notarized:
// the hex encoded SHA-256 of its content.
package notary

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	sha256 "github.com/minio/sha256-simd"
)

// Sum hashes everything read from r.
func Sum(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	id, err := Sum(f)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return id, nil
}
