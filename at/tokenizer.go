package at

import (
	"bufio"
	"bytes"
	"strings"
)

// Splitter is used for tokenizing AT command lines. It uses the signature of
// bufio.SplitFunc so it can be directly used with bufio.Scanner.
//
// It splits the input by CRLF line endings. A bare LF is accepted as well
// since some modules terminate lines inconsistently.
//
// The atEOF parameter indicates whether any more data will be available.
// When true, any remaining data is returned as the final token.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, bytes.TrimSuffix(data[0:i], []byte("\r")), nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter

// IsSentinel reports whether line, once trimmed, is one of the final result
// codes that end a command exchange.
func IsSentinel(line string) bool {
	switch strings.TrimSpace(line) {
	case OK, ERROR:
		return true
	}
	return false
}
