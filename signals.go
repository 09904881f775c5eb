package carbon

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for copy events.
var (
	SignalCopierCreated   = capitan.NewSignal("carbon.copier.created", "Copier instantiated")
	SignalShallowComplete = capitan.NewSignal("carbon.shallow.complete", "Shallow copy finished")
	SignalDeepComplete    = capitan.NewSignal("carbon.deep.complete", "Deep copy finished")
	SignalUncopyable      = capitan.NewSignal("carbon.uncopyable", "Value could not be copied")
)

// Keys for typed event data.
var (
	KeyTypeName     = capitan.NewStringKey("type_name")
	KeyMode         = capitan.NewStringKey("mode")
	KeyDuration     = capitan.NewDurationKey("duration")
	KeyMemoSize     = capitan.NewIntKey("memo_size")
	KeyRegistrySize = capitan.NewIntKey("registry_size")
	KeyError        = capitan.NewErrorKey("error")
)

// emitCopierCreated emits an event when a copier is created.
func emitCopierCreated(ctx context.Context, registrySize int) {
	capitan.Emit(ctx, SignalCopierCreated,
		KeyRegistrySize.Field(registrySize),
	)
}

// emitShallowComplete emits an event when a shallow copy finishes.
func emitShallowComplete(ctx context.Context, typeName string, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyMode.Field(string(ModeShallow)),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalShallowComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalShallowComplete, fields...)
	}
}

// emitDeepComplete emits an event when a deep copy finishes.
func emitDeepComplete(ctx context.Context, typeName string, duration time.Duration, memoSize int, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyMode.Field(string(ModeDeep)),
		KeyDuration.Field(duration),
		KeyMemoSize.Field(memoSize),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalDeepComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalDeepComplete, fields...)
	}
}

// emitUncopyable emits an event when a value has no copy strategy.
func emitUncopyable(ctx context.Context, typeName string, mode Mode, err error) {
	capitan.Error(ctx, SignalUncopyable,
		KeyTypeName.Field(typeName),
		KeyMode.Field(string(mode)),
		KeyError.Field(err),
	)
}
