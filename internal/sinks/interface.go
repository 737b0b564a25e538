// Package sinks defines the contract for the backends that receive the
// metrics published by each sensor.
package sinks

import (
	"context"
	"sync"

	"github.com/chrissnell/purpleaqi/internal/types"
)

// Sink is an interface that provides a standardized method for the
// backends that consume sensor updates
type Sink interface {
	StartSink(context.Context, *sync.WaitGroup) chan<- types.Update
}
