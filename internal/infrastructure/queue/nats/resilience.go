package nats

import (
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/docsort/internal/infrastructure/resilience"
)

func classifyNATSError(err error) resilience.ErrorClassification {
	if errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrConnectionReconnecting) ||
		errors.Is(err, nats.ErrDisconnected) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ClassifyTransient(err)
}
