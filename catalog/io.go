package catalog

import (
	"bytes"
	"io"
)

func readAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(r)
}

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}
