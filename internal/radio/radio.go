// Package radio provides the broadcast network collaborator the node talks
// to: fire-and-forget datagram delivery keyed by a protocol port, with no
// acknowledgment, ordering, or retransmission.
package radio

// Receiver is called with the raw payload of every inbound frame on a
// registered port. It may run on the transport's own goroutine; receivers
// must hand work off rather than block.
type Receiver func(payload []byte)

// Network is the broadcast interface the node consumes. Broadcast sends one
// payload to everyone listening on the port and reports only local send
// failures; delivery is never confirmed.
type Network interface {
	RegisterReceiver(port uint8, fn Receiver)
	Broadcast(port uint8, payload []byte) error
}
