package novaquerywire

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/tuannm99/novaquery/internal/alias/util"
)

// MaxFrameSize caps the JSON body of a frame.
const MaxFrameSize = 8 << 20

const headerLen = 4

var ErrBadFrame = errors.New("novaquerywire: bad frame")

// Codec moves frames over one stream: a 4-byte big-endian body length, then
// the JSON body. Read and Write may be used from different goroutines, but
// each is single-caller.
type Codec struct {
	r *bufio.Reader
	w *bufio.Writer
}

func NewCodec(rw io.ReadWriter) *Codec {
	return &Codec{r: bufio.NewReader(rw), w: bufio.NewWriter(rw)}
}

// Read decodes the next frame into v. io.EOF means the peer closed cleanly
// between frames. Numbers decode as json.Number so integers keep their digits.
func (c *Codec) Read(v any) error {
	var hdr [headerLen]byte
	if _, err := io.ReadFull(c.r, hdr[:]); err != nil {
		return err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	switch {
	case n == 0:
		return errors.Wrap(ErrBadFrame, "empty frame")
	case n > MaxFrameSize:
		return errors.Wrapf(ErrBadFrame, "frame too large: %d > %d", n, MaxFrameSize)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(c.r, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return errors.Wrapf(err, "novaquerywire: frame body of %d bytes", n)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return util.WithKind(errors.Wrap(err, "novaquerywire: bad json"), ErrBadFrame)
	}
	return nil
}

// Write encodes v as one frame and flushes it.
func (c *Codec) Write(v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "novaquerywire: marshal")
	}
	if len(body) > MaxFrameSize {
		return errors.Wrapf(ErrBadFrame, "json too large: %d > %d", len(body), MaxFrameSize)
	}

	var hdr [headerLen]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(body)))
	if _, err := c.w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := c.w.Write(body); err != nil {
		return err
	}
	return c.w.Flush()
}
