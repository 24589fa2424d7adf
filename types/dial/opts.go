package dial

import (
	"net/netip"
	"time"
)

const DefaultConnectTimeout = time.Second * 30

type Opts struct {
	Host string

	// If non-empty, overrides DNS lookup from Host
	Addrs []netip.Addr

	Port uint16

	// If zero, uses default of 30 seconds
	ConnectTimeout time.Duration
}

func (opts *Opts) SetDefaults() {
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
}
