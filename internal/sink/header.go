package sink

// binaryMarker mirrors the four high-bit bytes the teacher's
// writeHeader uses (0xC8 four times) to signal "this is a binary
// file" to tools that sniff the first few lines, per PDF convention.
var binaryMarker = []byte{'%', 0xC8, 0xC8, 0xC8, 0xC8, '\n'}

// WriteHeader emits the carried-over version line from the first
// input, followed by a binary-marker comment line when withMarker is
// set. Run passes the first input's HasBinaryMarker; later inputs'
// headers have no effect on the output.
func (o *Output) WriteHeader(headerLine []byte, withMarker bool) error {
	if err := o.writeBytes(headerLine); err != nil {
		return err
	}
	o.col = 0
	if withMarker {
		if err := o.writeBytes(binaryMarker); err != nil {
			return err
		}
		o.col = 0
	}
	o.prevSelfClosing = true
	return nil
}
