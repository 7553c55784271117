package main

import (
	"bytes"
	"io"

	"github.com/spf13/afero"
	"lukechampine.com/blake3"
)

const digestSize = 32

// fileDigest calculates the BLAKE3 digest of a file
func fileDigest(fs afero.Fs, path string) ([]byte, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := blake3.New(digestSize, nil)
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

// sameContent reports whether two files hold identical bytes. Sizes are
// compared first so differing files are rarely read.
func sameContent(fs afero.Fs, a, b string) (bool, error) {
	ai, err := fs.Stat(a)
	if err != nil {
		return false, err
	}
	bi, err := fs.Stat(b)
	if err != nil {
		return false, err
	}
	if ai.Size() != bi.Size() {
		return false, nil
	}

	da, err := fileDigest(fs, a)
	if err != nil {
		return false, err
	}
	db, err := fileDigest(fs, b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(da, db), nil
}
