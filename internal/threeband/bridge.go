package threeband

const bridgeDepth = 64

// Bridge is the ordered single-producer/single-consumer parameter channel
// between the control context and the rendering context. The producer never
// blocks: when the buffer is full the oldest pending update is discarded so
// the newest one survives. Delivered updates are applied in arrival order,
// and the consumer drains at block boundaries, so the visibility latency is
// bounded by one render quantum. No acknowledgement is returned.
type Bridge struct {
	ch chan Update
}

// NewBridge creates an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{ch: make(chan Update, bridgeDepth)}
}

// Send enqueues an update without blocking. Only a single goroutine may
// call Send.
func (b *Bridge) Send(u Update) {
	for {
		select {
		case b.ch <- u:
			return
		default:
		}
		// Full: drop the oldest pending update and retry. With one
		// producer the freed slot cannot be stolen by another sender.
		select {
		case <-b.ch:
		default:
		}
	}
}

// Drain applies every pending update to the core, in arrival order. Called
// by the rendering context between blocks; never blocks.
func (b *Bridge) Drain(core *Core) {
	for {
		select {
		case u := <-b.ch:
			core.ApplyUpdate(u)
		default:
			return
		}
	}
}

// Pending reports how many updates are queued.
func (b *Bridge) Pending() int { return len(b.ch) }
