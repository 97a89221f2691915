package scan

import (
	"errors"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadPrefix reads at most n bytes from the start of the file at path and
// decodes them to UTF-8. The byte count is enforced by the reader, never by
// the decoder: a UTF-16 file with a byte order mark yields at most n/2
// characters, and a multi-byte sequence cut at the boundary decodes to a
// single replacement character.
func ReadPrefix(path string, n int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, n)
	m, err := io.ReadFull(io.LimitReader(f, int64(n)), buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}
	return decodePrefix(buf[:m]), nil
}

func decodePrefix(b []byte) string {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
