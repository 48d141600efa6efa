package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks fatal startup misconfiguration.
	ErrConfiguration = errors.New("catalink: configuration error")
	// ErrDuplicateChannel is returned when a channel name is registered twice.
	ErrDuplicateChannel = fmt.Errorf("%w: duplicate channel", ErrConfiguration)
	// ErrUnknownChannel is returned for operations on a name never registered.
	ErrUnknownChannel = fmt.Errorf("%w: unknown channel", ErrConfiguration)
	// ErrChannelUnresolved means the transport has no proxy for the channel this cycle.
	ErrChannelUnresolved = errors.New("catalink: channel unresolved")
	// ErrExtractionDisabled is returned by Extraction.Attach when extracts are off.
	ErrExtractionDisabled = errors.New("catalink: extraction disabled")
	// ErrExtractionWrite wraps writer failures.
	ErrExtractionWrite = errors.New("catalink: extraction write failed")
	// ErrLiveRebind wraps engine rebind failures.
	ErrLiveRebind = errors.New("catalink: live rebind failed")
	// ErrLifecycle marks host contract violations (double initialize, execute after finalize).
	ErrLifecycle = errors.New("catalink: lifecycle violation")
)

// ChannelError carries the channel and cycle a local failure happened on.
type ChannelError struct {
	Channel string
	Cycle   int64
	Op      string
	Err     error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("channel %q cycle %d %s: %v", e.Channel, e.Cycle, e.Op, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }

func channelErr(channel string, cycle int64, op string, err error) error {
	return &ChannelError{Channel: channel, Cycle: cycle, Op: op, Err: err}
}
