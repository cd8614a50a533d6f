package hookfile

import (
	"errors"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"claude-wm-cli/internal/model"
)

var errNoEncodingMatched = errors.New("no supported encoding decoded the file content")

// fallbackEncodings is tried in order once UTF-8 decoding fails. Both are
// single-byte encodings so they never themselves fail to decode; they are
// ordered by how often hook scripts in the wild actually emit them.
var fallbackEncodings = []*charmap.Charmap{
	charmap.ISO8859_1,
	charmap.Windows1252,
}

// ReadTextFile reads path and returns its contents as a UTF-8 string. It
// tries UTF-8 first; if the bytes are not valid UTF-8, it retries through a
// bounded list of fallback encodings (latin-1, then cp1252). If every
// fallback still produces an invalid result, it fails with ERROR rather than
// silently returning mojibake.
func ReadTextFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", model.NewFileSystemError("read", path, err)
	}

	if utf8.Valid(raw) {
		return string(raw), nil
	}

	for _, enc := range fallbackEncodings {
		decoded, err := enc.NewDecoder().Bytes(raw)
		if err == nil && utf8.Valid(decoded) {
			return string(decoded), nil
		}
	}

	return "", model.NewFileSystemError("read", path, errNoEncodingMatched).
		WithContext("content is not valid UTF-8 and no fallback encoding decoded it cleanly")
}
