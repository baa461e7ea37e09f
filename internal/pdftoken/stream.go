package pdftoken

import (
	"io"

	"github.com/benoitkugler/pdfconcat/internal/pdferr"
)

// CopyStreamBody drains exactly n bytes verbatim into w. It must be
// called right after consuming the "stream" keyword and its single
// terminator byte (SkipStreamTerminator), with no lookahead pending:
// stream payloads are binary and must never pass through the token
// queue.
func (s *Scanner) CopyStreamBody(w io.Writer, n int64) error {
	if len(s.queue) != 0 {
		return s.syntaxErr("internal error: raw stream copy attempted with buffered tokens")
	}
	if err := s.br.copyN(w, n); err != nil {
		return pdferr.At(pdferr.IO, s.file, s.br.offset(), "copying stream body: %v", err)
	}
	return nil
}

// SkipStreamTerminator consumes exactly one end-of-line marker after
// the "stream" keyword: CRLF and LF and CR each count as one, any
// other single whitespace byte counts as one, and anything else is
// left alone (the keyword was followed directly by data, which PDF
// technically disallows but this tolerates).
func (s *Scanner) SkipStreamTerminator() error {
	if len(s.queue) != 0 {
		return s.syntaxErr("internal error: terminator skip attempted with buffered tokens")
	}
	c, err := s.br.readByte()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	switch c {
	case '\r':
		if c2, err2 := s.br.readByte(); err2 == nil && c2 != '\n' {
			_ = s.br.unreadByte()
		}
	case '\n', ' ', '\t', '\f', 0:
		// one whitespace byte consumed
	default:
		_ = s.br.unreadByte()
	}
	return nil
}
