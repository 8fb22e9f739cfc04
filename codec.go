package pima

// encodeFrame assembles a full wire frame for the given command: a length
// byte, the payload (module_id | message | channel | addr_len | addr |
// data), and a trailing big-endian CRC-16 over everything before it.
func encodeFrame(moduleID byte, message MessageKind, channel ChannelKind, addr, data []byte) []byte {
	payload := make([]byte, 0, 4+len(addr)+len(data))
	payload = append(payload, moduleID, byte(message), byte(channel), byte(len(addr)))
	payload = append(payload, addr...)
	payload = append(payload, data...)

	frame := make([]byte, 0, 1+len(payload)+2)
	frame = append(frame, byte(len(payload)))
	frame = append(frame, payload...)

	sum := crc16(frame, 0)
	frame = append(frame, byte(sum>>8), byte(sum))
	return frame
}

// readExactly blocks on t until exactly n bytes have been read or an error
// occurs; a zero-length Read is treated as "keep waiting".
func readExactly(t Transport, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		chunk, err := t.Read(n - len(out))
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}

// readByte blocks until exactly one byte arrives.
func readByte(t Transport) (byte, error) {
	b, err := readExactly(t, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// isRepeatedByte reports whether buf consists of a single repeated byte
// value, the signature of a garbage/noise frame.
func isRepeatedByte(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	first := buf[0]
	for _, b := range buf[1:] {
		if b != first {
			return false
		}
	}
	return true
}

// decodeFrame reads one frame from t and returns its payload (module_id
// through the last pre-CRC byte). moduleID is the expected module ID for
// the configured zone capacity.
func decodeFrame(t Transport, moduleID byte) ([]byte, error) {
	length, err := readByte(t)
	if err != nil {
		return nil, err
	}

	// Past the length byte, a zero-length read means the frame ended short.
	want := int(length) + 2
	rest := make([]byte, 0, want)
	for len(rest) < want {
		chunk, err := t.Read(want - len(rest))
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}
		rest = append(rest, chunk...)
	}

	full := append([]byte{length}, rest...)

	if isRepeatedByte(full) {
		return nil, &GarbageInput{Length: int(length)}
	}
	if len(full) < int(length)+3 {
		return nil, &ShortFrame{Want: int(length) + 3, Got: len(full)}
	}

	body := full[:len(full)-2]
	crcBytes := full[len(full)-2:]
	claimed := uint16(crcBytes[0])<<8 | uint16(crcBytes[1])
	computed := crc16(body, 0)
	if claimed != computed {
		return nil, &CrcError{Want: claimed, Got: computed}
	}

	payload := full[1 : len(full)-2]
	if len(payload) == 0 || payload[0] != moduleID {
		got := byte(0)
		if len(payload) > 0 {
			got = payload[0]
		}
		return nil, &ModuleIdMismatch{Want: moduleID, Got: got}
	}

	return payload, nil
}

// drainGarbage is the recovery path for a GarbageInput result during a
// status read: keep reading frame-shaped lines until one is not a single
// repeated byte, then hand control back to the caller to retry the read.
func drainGarbage(t Transport) error {
	for {
		length, err := readByte(t)
		if err != nil {
			return err
		}
		rest, err := readExactly(t, int(length)+2)
		if err != nil {
			return err
		}
		line := append([]byte{length}, rest...)
		if !isRepeatedByte(line) {
			return nil
		}
	}
}
