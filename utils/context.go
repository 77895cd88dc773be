package utils

import (
	"context"
	"log/slog"
)

type ContextKey int

const (
	ContextKeyLogger ContextKey = iota
	ContextKeyActorIdentity
)

// ActorIdentity identifies who triggered an operation, for audit attribution.
// Either field may be empty when the caller is an unauthenticated system job.
type ActorIdentity struct {
	UserId string
	ApiKey string
}

func (a ActorIdentity) String() string {
	switch {
	case a.UserId != "":
		return a.UserId
	case a.ApiKey != "":
		return "api_key:" + a.ApiKey
	default:
		return "system"
	}
}

func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger, found := ctx.Value(ContextKeyLogger).(*slog.Logger)
	if !found {
		return slog.Default()
	}
	return logger
}

func StoreLoggerInContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ContextKeyLogger, logger)
}

func ActorIdentityFromContext(ctx context.Context) ActorIdentity {
	identity, _ := ctx.Value(ContextKeyActorIdentity).(ActorIdentity)
	return identity
}

func StoreActorIdentityInContext(ctx context.Context, identity ActorIdentity) context.Context {
	return context.WithValue(ctx, ContextKeyActorIdentity, identity)
}
