package device

import "context"

// forward copies items from in to a new channel as Devices until in is
// closed. Once ctx is cancelled the remaining items are discarded, but in
// is still drained so its producer never blocks on a send.
func forward[T any](ctx context.Context, in <-chan T, wrap func(T) Device) <-chan Device {
	out := make(chan Device)
	go func() {
		defer close(out)
		for item := range in {
			select {
			case out <- wrap(item):
			case <-ctx.Done():
				for range in {
				}
				return
			}
		}
	}()
	return out
}
