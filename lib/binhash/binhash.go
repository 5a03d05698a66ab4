// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Digest is a BLAKE3-256 content digest.
type Digest [32]byte

// String returns the hex encoding, the form used in logs and listings.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// HashFile computes the digest of the file at path, streaming it through
// the hash so memory use does not depend on file size.
func HashFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	return CopyFile(io.Discard, file)
}

// CopyFile copies src to dst and returns the digest of everything
// copied. The toolset installer uses it to write and fingerprint a
// command in a single read of the source.
func CopyFile(dst io.Writer, src io.Reader) (Digest, error) {
	hasher := blake3.New()
	if _, err := io.Copy(io.MultiWriter(dst, hasher), src); err != nil {
		return Digest{}, fmt.Errorf("copying: %w", err)
	}

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}
