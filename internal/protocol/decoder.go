package protocol

import "bytes"

// Decoder incrementally splits a byte stream into lines and parses each
// complete line as an Event. Partial lines are buffered across calls, so the
// stream may be fed in arbitrarily sized chunks.
type Decoder struct {
	buf []byte
}

// Line is one complete line delivered by the Decoder.
type Line struct {
	// Raw is the exact line content without the trailing delimiter.
	Raw []byte
	// Event is the parsed event, or nil when the line was not valid JSON.
	Event *Event
}

// NewDecoder creates an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed consumes one chunk and returns the complete lines it terminated.
// Lines that fail JSON parsing are returned with a nil Event so callers can
// surface them as raw diagnostics; whitespace-only lines are dropped entirely.
func (d *Decoder) Feed(chunk []byte) []Line {
	if len(chunk) == 0 {
		return nil
	}
	d.buf = append(d.buf, chunk...)

	var lines []Line
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		raw := trimLine(d.buf[:i])
		d.buf = d.buf[i+1:]
		if len(raw) == 0 {
			continue
		}

		// Copy so returned lines do not alias the internal buffer.
		line := Line{Raw: append([]byte(nil), raw...)}
		if event, err := ParseEvent(line.Raw); err == nil {
			line.Event = &event
		}
		lines = append(lines, line)
	}
	return lines
}

// Rest returns any unterminated trailing fragment and resets the decoder.
// Callers surface it as a final diagnostic line when the stream closes
// mid-line; it is never parsed as JSON. Returns nil when nothing but
// whitespace remains.
func (d *Decoder) Rest() []byte {
	rest := d.buf
	d.buf = nil
	if len(bytes.TrimSpace(rest)) == 0 {
		return nil
	}
	return append([]byte(nil), rest...)
}

// trimLine strips a trailing carriage return and treats whitespace-only
// content as empty.
func trimLine(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte{'\r'})
	if len(bytes.TrimSpace(line)) == 0 {
		return nil
	}
	return line
}
