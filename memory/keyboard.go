package memory

import "sync"

const keyboardAddr = 0xDE04

// Keyboard is the memory-mapped key event FIFO. The SDL host thread
// pushes encoded key words via Push; the CPU's Run goroutine pops them
// one at a time on reads of 0xDE04. The mutex is the one piece of
// shared mutable state the host and the CPU touch concurrently (see
// SPEC_FULL.md's concurrency section).
type Keyboard struct {
	mu      sync.Mutex
	mode    uint16
	pending []uint16
}

func NewKeyboard() *Keyboard { return &Keyboard{} }

func (k *Keyboard) Name() string { return "Keyboard" }

func (k *Keyboard) Valid(address uint16) bool { return address == keyboardAddr }

// Read pops the next queued key word, or 0x0000 if the queue is empty.
func (k *Keyboard) Read(address uint16) uint16 {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.pending) == 0 {
		return 0x0000
	}
	v := k.pending[0]
	k.pending = k.pending[1:]
	return v
}

// Write sets the control word: bit 0 enables modifier-key interrupts,
// bit 1 is the capslock state.
func (k *Keyboard) Write(address uint16, value uint16) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.mode = value
}

// Push enqueues a host-encoded key event word (bits 0-10 code, bit 11
// valid, bit 12 extended, bits 13-15 modifier set). Called from the
// SDL event thread, never from the CPU's Run goroutine.
func (k *Keyboard) Push(word uint16) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pending = append(k.pending, word)
}

// ModifierInterruptsEnabled reports whether bit 0 of the last control
// write requested modifier-key interrupts.
func (k *Keyboard) ModifierInterruptsEnabled() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.mode&0x0001 != 0
}

// CapsLock reports the last-written capslock state (bit 1).
func (k *Keyboard) CapsLock() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.mode&0x0002 != 0
}
