package wire

import (
	"bufio"
	"fmt"
	"io"
	"sync"
)

// maxLineSize bounds a single wire message. States can carry screenshots-
// adjacent metadata and large DOM snapshots, so this is generous.
const maxLineSize = 16 * 1024 * 1024

// Codec frames one JSON object per line, newline-terminated, flushed after
// every write — the same discipline as the teacher's PipeClientConn and
// daemon.sendRequest.
type Codec struct {
	scanner *bufio.Scanner
	writer  *bufio.Writer
	mu      sync.Mutex
}

// NewCodec wraps r/w as the interpreter's stdout/stdin.
func NewCodec(r io.Reader, w io.Writer) *Codec {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Codec{
		scanner: scanner,
		writer:  bufio.NewWriter(w),
	}
}

// ReadInbound blocks until the next line arrives and decodes it. Returns
// io.EOF if the interpreter closed its stdout.
func (c *Codec) ReadInbound() (Inbound, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return Inbound{}, fmt.Errorf("wire: read: %w", err)
		}
		return Inbound{}, io.EOF
	}
	return DecodeInbound(c.scanner.Bytes())
}

// WriteOutbound encodes and flushes one outbound message.
func (c *Codec) WriteOutbound(msg Outbound) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, err := msg.EncodeOutbound()
	if err != nil {
		return fmt.Errorf("wire: encode: %w", err)
	}
	if _, err := c.writer.Write(line); err != nil {
		return err
	}
	if err := c.writer.WriteByte('\n'); err != nil {
		return err
	}
	return c.writer.Flush()
}
