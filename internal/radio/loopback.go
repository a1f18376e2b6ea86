package radio

import "sync"

// Loopback is an in-memory Network for tests and same-process demos. Every
// receiver registered on a port sees every broadcast to that port. There is
// no self-echo concern at this layer: a producing node never registers a
// receiver for its own protocol.
type Loopback struct {
	mu        sync.Mutex
	receivers map[uint8][]Receiver
}

func NewLoopback() *Loopback {
	return &Loopback{receivers: make(map[uint8][]Receiver)}
}

func (l *Loopback) RegisterReceiver(port uint8, fn Receiver) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.receivers[port] = append(l.receivers[port], fn)
}

func (l *Loopback) Broadcast(port uint8, payload []byte) error {
	l.mu.Lock()
	fns := append([]Receiver(nil), l.receivers[port]...)
	l.mu.Unlock()
	for _, fn := range fns {
		// Each receiver gets its own copy; payloads outlive the send.
		fn(append([]byte(nil), payload...))
	}
	return nil
}
