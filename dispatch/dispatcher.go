// Package dispatch forwards assembled records to the downstream consumer and
// keeps a rejected record from affecting the connection or later records.
package dispatch

import (
	"bytes"
	"fmt"

	"github.com/takiaine/nmea-navsat-driver/errors"
	"github.com/takiaine/nmea-navsat-driver/frame"
)

// Consumer accepts one record at a time.
//
// A nil return accepts the record. An error classified Invalid (see
// errors.IsInvalid) rejects only that record. Any other error is a contract
// violation and stops the client.
type Consumer interface {
	Accept(record []byte, frameID string) error
}

// ConsumerFunc adapts a function to the Consumer interface.
type ConsumerFunc func(record []byte, frameID string) error

// Accept calls f.
func (f ConsumerFunc) Accept(record []byte, frameID string) error {
	return f(record, frameID)
}

// Status is the result of dispatching or reading.
type Status int

const (
	// Accepted means the consumer took the record.
	Accepted Status = iota
	// Rejected means the consumer reported a validation error for the record.
	Rejected
	// ConnectionFailed means the connection failed before or while reading.
	// Dispatch never returns it; the connection manager reports it for
	// connect and read failures.
	ConnectionFailed
)

// String returns the lower-case name used in logs and metric labels.
func (s Status) String() string {
	switch s {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case ConnectionFailed:
		return "connection_failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome reports what happened to a single operation.
type Outcome struct {
	Status Status
	Reason string
}

// RejectFunc observes a rejected record.
type RejectFunc func(record []byte, reason error)

// Dispatcher passes records to a Consumer.
type Dispatcher struct {
	consumer Consumer
	onReject RejectFunc
}

// NewDispatcher creates a dispatcher. onReject may be nil.
func NewDispatcher(consumer Consumer, onReject RejectFunc) *Dispatcher {
	return &Dispatcher{consumer: consumer, onReject: onReject}
}

// Dispatch hands one record to the consumer.
//
// Surrounding whitespace, including the '\r' of CRLF line endings, is trimmed
// first, and a record that is empty after trimming is rejected without
// reaching the consumer. The returned error is non-nil only for contract
// violations and is classified Fatal.
func (d *Dispatcher) Dispatch(record frame.Record, frameID string) (Outcome, error) {
	line := bytes.TrimSpace(record)
	if len(line) == 0 {
		return d.reject(record, errors.ErrEmptyRecord), nil
	}

	err := d.consumer.Accept(line, frameID)
	switch {
	case err == nil:
		return Outcome{Status: Accepted}, nil
	case errors.IsInvalid(err):
		return d.reject(line, err), nil
	default:
		return Outcome{}, errors.WrapFatal(
			fmt.Errorf("%w: %w", errors.ErrContractViolation, err),
			"dispatcher", "Dispatch", "consumer accept")
	}
}

// DispatchAll dispatches records in order. Rejections do not stop the batch;
// a contract violation does, and the outcomes gathered so far are returned with it.
func (d *Dispatcher) DispatchAll(records []frame.Record, frameID string) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(records))
	for _, rec := range records {
		out, err := d.Dispatch(rec, frameID)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

func (d *Dispatcher) reject(record []byte, reason error) Outcome {
	if d.onReject != nil {
		d.onReject(record, reason)
	}
	return Outcome{Status: Rejected, Reason: reason.Error()}
}
