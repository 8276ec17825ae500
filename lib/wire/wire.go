// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/bureau-foundation/shardfs/lib/netutil"
)

const (
	// MaxTokenLength bounds a single command line or size line.
	MaxTokenLength = 4096

	// ChunkSize is the relay buffer size used by CopyExactly.
	ChunkSize = 4096

	// ErrorMarker starts every error line. Acknowledgements use the
	// bare "ERR" form, which shares the same prefix.
	ErrorMarker = "ERR:"

	// OKMarker starts every success line.
	OKMarker = "OK:"

	ackOK   = "ACK"
	ackFail = "ERR"
)

var (
	// ErrConnectionClosed means the peer closed the connection before
	// a delimiter was read.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrFrameTooLong means a line exceeded MaxTokenLength.
	ErrFrameTooLong = errors.New("frame too long")

	// ErrIncompleteTransfer means fewer payload bytes arrived than the
	// size line declared.
	ErrIncompleteTransfer = errors.New("incomplete file transfer")

	// ErrTimeout means the peer stopped sending before the read
	// deadline expired.
	ErrTimeout = errors.New("transfer timed out")

	// ErrInvalidSize means a size or count line was not a decimal
	// number.
	ErrInvalidSize = errors.New("invalid size line")

	// ErrBadAck means the 3 acknowledgement bytes were neither ACK nor
	// ERR.
	ErrBadAck = errors.New("malformed acknowledgement")
)

// RemoteError is an error line received from a peer.
type RemoteError struct {
	// Reason is the text after the error marker.
	Reason string
}

func (e *RemoteError) Error() string {
	if e.Reason == "" {
		return "remote error"
	}
	return "remote error: " + e.Reason
}

// IsErrorLine reports whether line is an error line.
func IsErrorLine(line string) bool {
	return strings.HasPrefix(line, ackFail)
}

func parseErrorLine(line string) *RemoteError {
	reason := strings.TrimPrefix(line, ErrorMarker)
	if reason == line {
		reason = strings.TrimPrefix(line, ackFail)
	}
	return &RemoteError{Reason: strings.TrimSpace(reason)}
}

// classifyReadError maps a read failure onto the codec's sentinels.
// io.EOF and a closed connection become closed, deadline expiry becomes
// ErrTimeout. Anything else is returned unchanged.
func classifyReadError(err, closed error) error {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed):
		return closed
	case netutil.IsTimeout(err):
		return ErrTimeout
	}
	return err
}

// ReadToken reads bytes up to delimiter and returns them without the
// delimiter. A trailing carriage return is dropped when the delimiter
// is a line break.
func ReadToken(r io.ByteReader, delimiter byte) (string, error) {
	var token []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", classifyReadError(err, ErrConnectionClosed)
		}
		if b == delimiter {
			break
		}
		if len(token) >= MaxTokenLength {
			return "", ErrFrameTooLong
		}
		token = append(token, b)
	}
	if delimiter == '\n' && len(token) > 0 && token[len(token)-1] == '\r' {
		token = token[:len(token)-1]
	}
	return string(token), nil
}

// ReadLine reads one line-break terminated line.
func ReadLine(r io.ByteReader) (string, error) {
	return ReadToken(r, '\n')
}

// ReadCommand reads a command line and splits it into the verb and its
// space-separated arguments.
func ReadCommand(r io.ByteReader) (string, []string, error) {
	line, err := ReadLine(r)
	if err != nil {
		return "", nil, err
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, nil
	}
	return fields[0], fields[1:], nil
}

// WriteCommand writes a command line.
func WriteCommand(w io.Writer, verb string, args ...string) error {
	line := verb
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}
	_, err := io.WriteString(w, line+"\n")
	return err
}

// WriteSize writes a size or count line.
func WriteSize(w io.Writer, size int64) error {
	_, err := io.WriteString(w, strconv.FormatInt(size, 10)+"\n")
	return err
}

// ParseSize parses the text of a size or count line. An error line
// yields a *RemoteError.
func ParseSize(line string) (int64, error) {
	if IsErrorLine(line) {
		return 0, parseErrorLine(line)
	}
	size, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, line)
	}
	return size, nil
}

// ReadSize reads a size or count line. Values of zero or below are
// returned as-is; callers decide whether they mean "empty".
func ReadSize(r io.ByteReader) (int64, error) {
	line, err := ReadLine(r)
	if err != nil {
		return 0, err
	}
	return ParseSize(line)
}

// WriteError writes an error line.
func WriteError(w io.Writer, reason string) error {
	_, err := io.WriteString(w, ErrorMarker+" "+reason+"\n")
	return err
}

// WriteOK writes a success line.
func WriteOK(w io.Writer, message string) error {
	_, err := io.WriteString(w, OKMarker+" "+message+"\n")
	return err
}

// ReadResponse reads a terminal OK/ERR line and returns the message
// after the marker. An error line yields a *RemoteError.
func ReadResponse(r io.ByteReader) (string, error) {
	line, err := ReadLine(r)
	if err != nil {
		return "", err
	}
	if IsErrorLine(line) {
		return "", parseErrorLine(line)
	}
	return strings.TrimSpace(strings.TrimPrefix(line, OKMarker)), nil
}

// WriteAck writes the 3-byte acknowledgement.
func WriteAck(w io.Writer, ok bool) error {
	token := ackFail
	if ok {
		token = ackOK
	}
	_, err := io.WriteString(w, token)
	return err
}

// ReadAck reads the 3-byte acknowledgement and reports whether it was
// ACK.
func ReadAck(r io.Reader) (bool, error) {
	var token [3]byte
	if _, err := io.ReadFull(r, token[:]); err != nil {
		return false, classifyReadError(err, ErrConnectionClosed)
	}
	switch string(token[:]) {
	case ackOK:
		return true, nil
	case ackFail:
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", ErrBadAck, token[:])
}

// CopyExactly relays exactly n bytes from src to dst in ChunkSize
// pieces and returns the number of bytes moved. If src ends early the
// error wraps ErrIncompleteTransfer; if a read deadline expires it
// wraps ErrTimeout. Write failures are returned unchanged.
func CopyExactly(dst io.Writer, src io.Reader, n int64) (int64, error) {
	buffer := make([]byte, ChunkSize)
	var copied int64
	for copied < n {
		want := int64(len(buffer))
		if remaining := n - copied; remaining < want {
			want = remaining
		}
		read, readErr := src.Read(buffer[:want])
		if read > 0 {
			written, writeErr := dst.Write(buffer[:read])
			copied += int64(written)
			if writeErr != nil {
				return copied, writeErr
			}
			if written != read {
				return copied, io.ErrShortWrite
			}
		}
		if readErr != nil {
			if copied == n {
				break
			}
			return copied, fmt.Errorf("%d of %d bytes: %w", copied, n,
				classifyReadError(readErr, ErrIncompleteTransfer))
		}
	}
	return copied, nil
}
