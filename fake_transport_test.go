package pima

import "errors"

// fakeTransport is a canned-data io stand-in used to dry-test the codec
// and protocol engine without a real serial line or socket, in the same
// spirit as a hand-rolled fake io.ReadWriteCloser.
type fakeTransport struct {
	unread  []byte
	written [][]byte
	closed  bool
}

func newFakeTransport(data []byte) *fakeTransport {
	return &fakeTransport{unread: data}
}

func (f *fakeTransport) Read(n int) ([]byte, error) {
	if f.closed {
		return nil, errors.New("fakeTransport: read after close")
	}
	if len(f.unread) == 0 {
		return nil, nil
	}
	if n > len(f.unread) {
		n = len(f.unread)
	}
	out := f.unread[:n]
	f.unread = f.unread[n:]
	return out, nil
}

func (f *fakeTransport) Write(p []byte) error {
	if f.closed {
		return errors.New("fakeTransport: write after close")
	}
	cp := append([]byte{}, p...)
	f.written = append(f.written, cp)
	return nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

// feed appends more bytes to be read, used to simulate a follow-up frame
// arriving after a drain.
func (f *fakeTransport) feed(p []byte) {
	f.unread = append(f.unread, p...)
}
