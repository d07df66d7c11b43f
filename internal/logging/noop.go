package logging

import (
	"context"

	"github.com/scystream/control-plane/internal/ports"
)

// NoOp is a ports.Logger that discards everything, used by tests and by
// components that receive no logger.
type NoOp struct{}

func (NoOp) Debug(context.Context, string, ...interface{}) {}
func (NoOp) Info(context.Context, string, ...interface{})  {}
func (NoOp) Warn(context.Context, string, ...interface{})  {}
func (NoOp) Error(context.Context, string, ...interface{}) {}
func (n NoOp) With(...interface{}) ports.Logger             { return n }

var _ ports.Logger = NoOp{}
