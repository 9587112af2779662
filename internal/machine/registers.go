package machine

import "sync"

// RegisterBank is a device's four-word register window: {status,
// command, data0, data1}. Terminals reuse the same four words as
// {receiver status, receiver command, transmitter status, transmitter
// command} (§6 "Device register geometry").
type RegisterBank struct {
	mu   sync.Mutex
	word [4]uint32
}

// Read returns the word at the given field offset.
func (b *RegisterBank) Read(field int) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.word[field]
}

// Write sets the word at the given field offset. Writing the command
// field is what a real device bank would interpret as "start an
// operation"; devsim backends poll or block on this via their own
// channel, this type only stores the bits.
func (b *RegisterBank) Write(field int, v uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.word[field] = v
}
