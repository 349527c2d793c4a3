package queue

import (
	"context"
	"errors"
)

// Publisher publishes change messages to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg ChangeMessage) error
	Close() error
}

// MessageHandler handles a consumed queue message.
type MessageHandler func(ctx context.Context, msg ChangeMessage) error

// Consumer consumes change messages from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}

// ChangesQueue carries every committed ledger change event.
const ChangesQueue = "ledger.changes"

var workQueues = []string{ChangesQueue}

// DLQName returns the dead-letter queue name for a work queue, e.g. dlq.ledger.changes.
func DLQName(queue string) string {
	return "dlq." + queue
}

func WorkQueueNames() []string {
	return append([]string(nil), workQueues...)
}

func DLQNames() []string {
	queues := make([]string, 0, len(workQueues))
	for _, name := range workQueues {
		queues = append(queues, DLQName(name))
	}
	return queues
}

// PermanentError marks a handler failure that redelivery cannot fix.
// The consumer dead-letters such messages instead of requeueing them.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	if e == nil || e.Err == nil {
		return "permanent failure"
	}
	return "permanent failure: " + e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func IsPermanent(err error) bool {
	var permanent *PermanentError
	return errors.As(err, &permanent)
}
