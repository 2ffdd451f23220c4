package delivery

import (
	"context"
	"errors"
	"fmt"
	"log"
)

var ErrNotDelivered = errors.New("video was not delivered to any channel")

// Channel is one independently configured sink for the finished video.
type Channel interface {
	Name() string
	Send(ctx context.Context, videoPath, caption string) error
}

type Dispatcher struct {
	channels []Channel
}

// NewDispatcher ignores nil channels so callers can pass optional ones as-is.
func NewDispatcher(channels ...Channel) *Dispatcher {
	d := &Dispatcher{}
	for _, c := range channels {
		if c != nil {
			d.channels = append(d.channels, c)
		}
	}
	return d
}

func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.channels))
	for _, c := range d.channels {
		names = append(names, c.Name())
	}
	return names
}

// Deliver sends the video to every channel. One channel failing never stops
// the others; an error is returned only when channels exist and all failed.
func (d *Dispatcher) Deliver(ctx context.Context, videoPath, caption string) error {
	if len(d.channels) == 0 {
		log.Println("Warning: no delivery channel configured, video kept at", videoPath)
		return nil
	}

	var errs []error
	for _, c := range d.channels {
		if err := c.Send(ctx, videoPath, caption); err != nil {
			log.Printf("Delivery via %s failed: %v", c.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
			continue
		}
		log.Printf("Delivered %s via %s", videoPath, c.Name())
	}

	if len(errs) == len(d.channels) {
		return fmt.Errorf("%w: %w", ErrNotDelivered, errors.Join(errs...))
	}
	return nil
}
