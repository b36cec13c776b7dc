package freshservice

import (
	"context"

	"github.com/sirupsen/logrus"
)

type loggerKey struct{}

// ContextWithLogger attaches a run-scoped logger that the client and the
// enricher use instead of their own.
func ContextWithLogger(ctx context.Context, logger logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func loggerFromContext(ctx context.Context, fallback logrus.FieldLogger) logrus.FieldLogger {
	if l, ok := ctx.Value(loggerKey{}).(logrus.FieldLogger); ok && l != nil {
		return l
	}
	if fallback != nil {
		return fallback
	}
	return logrus.StandardLogger()
}
