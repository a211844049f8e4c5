package events

import "github.com/kelindar/event"

// Forward delivers every event of type T to ch until the returned func is
// called. Sends never block the publisher; an event that does not fit in
// ch is dropped and counted in Dropped.
func Forward[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
			bus.dropped.Add(1)
		}
	})
}

// Dropped returns how many events Forward discarded because a consumer
// was not keeping up.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}
