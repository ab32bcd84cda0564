package extension

import "sync"

// ResponseBuffer collects the response fields a long-lived program
// writes during one call. A game host outlives any single command, so
// its Env closures write here and the caller drains the buffer into
// the command response afterwards.
type ResponseBuffer struct {
	mu     sync.Mutex
	fields map[string]string
}

// NewResponseBuffer creates an empty buffer.
func NewResponseBuffer() *ResponseBuffer {
	return &ResponseBuffer{fields: make(map[string]string)}
}

// Set stores a field.
func (b *ResponseBuffer) Set(key, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fields[key] = value
}

// Get reads a field; missing fields read as empty.
func (b *ResponseBuffer) Get(key string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fields[key]
}

// Drain returns the buffered fields and resets the buffer.
func (b *ResponseBuffer) Drain() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	drained := b.fields
	b.fields = make(map[string]string)
	return drained
}
