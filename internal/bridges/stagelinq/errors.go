package stagelinq

import "errors"

// Domain errors for the StageLinQ bridge package.
var (
	// ErrInvalidPayload is returned when an adapter message cannot be decoded.
	ErrInvalidPayload = errors.New("stagelinq: invalid payload")

	// ErrUnknownKind is returned for adapter topics with an unrecognised
	// final segment.
	ErrUnknownKind = errors.New("stagelinq: unknown message kind")

	// ErrDeviceNotAllowed is returned when a message arrives from a device
	// outside the configured allow list.
	ErrDeviceNotAllowed = errors.New("stagelinq: device not allowed")
)
