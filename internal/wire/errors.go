package wire

import (
	"errors"
	"fmt"
)

// ErrIncomplete means the buffer does not yet hold a whole message.
// Nothing is consumed; the caller should wait for more bytes.
var ErrIncomplete = errors.New("wire: incomplete message")

// FramingError reports a message whose declared length disagrees with the
// bytes its body actually occupies. The stream cannot be trusted after it.
type FramingError struct {
	Tag      byte
	Declared int
	Consumed int
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("wire: framing error in %q message: declared %d bytes, consumed %d", e.Tag, e.Declared, e.Consumed)
}

// UnknownTagError reports an unrecognized tag byte. The parser consumes the
// single byte so the caller can resume at the next one.
type UnknownTagError struct {
	Tag byte
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("wire: unknown message tag 0x%02x", e.Tag)
}
