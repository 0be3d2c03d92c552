package server

import (
	"net/netip"
	"time"
)

// datagram is one packet handed from the read loop to the dispatcher.
type datagram struct {
	from netip.AddrPort
	data []byte
	at   time.Time
}
