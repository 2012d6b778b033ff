// Package scanner implements the incremental JSON array scanner that sits at
// the front of the transcript pipeline: it turns a growing byte stream into
// complete top-level objects as soon as each closes, without ever re-scanning
// bytes it has already consumed.
package scanner

import "encoding/json"

// Scanner is a single-pass state machine over a growing `[obj, obj, ...]`
// byte stream. Feed appends new bytes and returns the complete objects that
// became available as a result; a malformed object is dropped silently and
// does not stop the scan.
type Scanner struct {
	inArray    bool
	arrayEnded bool
	inObject   bool
	inString   bool
	escapeNext bool
	braceDepth int
	buf        []byte
}

// New returns a Scanner ready to consume bytes from the start of a stream.
func New() *Scanner {
	return &Scanner{}
}

// Feed consumes the next chunk of the stream and returns the JSON objects
// completed by it, in order. Bytes already processed in prior calls are
// never revisited.
func (s *Scanner) Feed(chunk []byte) []json.RawMessage {
	var out []json.RawMessage

	for _, c := range chunk {
		if s.arrayEnded {
			continue
		}

		if !s.inArray {
			if c == '[' {
				s.inArray = true
			}
			// whitespace or other preamble before '[': ignored
			continue
		}

		if !s.inObject {
			switch {
			case c == '{':
				s.inObject = true
				s.braceDepth = 1
				s.buf = append(s.buf[:0], c)
			case c == ']':
				s.inArray = false
				s.arrayEnded = true
			default:
				// comma, whitespace between objects: skip
			}
			continue
		}

		// Inside an object: buffer every byte, track string/escape state.
		s.buf = append(s.buf, c)

		if s.escapeNext {
			s.escapeNext = false
			continue
		}

		if s.inString {
			switch c {
			case '\\':
				s.escapeNext = true
			case '"':
				s.inString = false
			}
			continue
		}

		switch c {
		case '"':
			s.inString = true
		case '{':
			s.braceDepth++
		case '}':
			s.braceDepth--
			if s.braceDepth == 0 {
				if obj, ok := parseObject(s.buf); ok {
					out = append(out, obj)
				}
				s.inObject = false
				s.buf = s.buf[:0]
			}
		}
	}

	return out
}

func parseObject(buf []byte) (json.RawMessage, bool) {
	if !json.Valid(buf) {
		return nil, false
	}
	raw := make(json.RawMessage, len(buf))
	copy(raw, buf)
	return raw, true
}
