package pdftoken

import "io"

// byteReader is a small buffered window over an io.ReadSeeker that
// supports reading one byte at a time and backing up by exactly one
// byte. The tokenizer needs this to implement PDF's terminator-
// sensitive grammar: after reading a name or number, the byte that
// ended it must still be visible to the next read.
//
// The spec this is ported from notes that its origin used an absolute
// seek to implement "unget" because its host's peek primitive
// disturbed position reporting; Go's io.Seeker has clean relative
// semantics, so the common case here (unreading within the current
// buffer) is just a pointer decrement, falling back to a real Seek
// only at a buffer boundary.
type byteReader struct {
	rs       io.ReadSeeker
	buf      []byte
	i, n     int
	bufStart int64 // file offset of buf[0]
}

const readBufSize = 4096

func newByteReader(rs io.ReadSeeker, at int64) (*byteReader, error) {
	return &byteReader{rs: rs, buf: make([]byte, readBufSize), bufStart: at}, nil
}

// offset returns the file position of the next byte readByte would return.
func (b *byteReader) offset() int64 { return b.bufStart + int64(b.i) }

func (b *byteReader) fill() error {
	b.bufStart += int64(b.n)
	n, err := b.rs.Read(b.buf)
	b.i, b.n = 0, n
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return err
	}
	return nil
}

func (b *byteReader) readByte() (byte, error) {
	if b.i >= b.n {
		if err := b.fill(); err != nil {
			return 0, err
		}
	}
	c := b.buf[b.i]
	b.i++
	return c, nil
}

// unreadByte backs up by exactly one byte. It must only be called
// once between reads (PDF's grammar never needs more).
func (b *byteReader) unreadByte() error {
	if b.i > 0 {
		b.i--
		return nil
	}
	target := b.bufStart - 1
	if target < 0 {
		return io.ErrShortBuffer
	}
	if _, err := b.rs.Seek(target, io.SeekStart); err != nil {
		return err
	}
	b.bufStart = target
	b.i, b.n = 0, 0
	return nil
}

// seekTo repositions the reader to an absolute offset, discarding the buffer.
func (b *byteReader) seekTo(offset int64) error {
	if _, err := b.rs.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	b.bufStart = offset
	b.i, b.n = 0, 0
	return nil
}

// copyN drains exactly n bytes into w, reusing whatever is already
// buffered before reading more from rs. Used for stream-body
// pass-through, where n can be far larger than readBufSize and must
// never be materialized whole in memory.
func (b *byteReader) copyN(w io.Writer, n int64) error {
	for n > 0 {
		if b.i >= b.n {
			if err := b.fill(); err != nil {
				return err
			}
		}
		take := int64(b.n - b.i)
		if take > n {
			take = n
		}
		if _, err := w.Write(b.buf[b.i : b.i+int(take)]); err != nil {
			return err
		}
		b.i += int(take)
		n -= take
	}
	return nil
}
