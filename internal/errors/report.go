package errors

import (
	"github.com/Shugur-Network/relaydex/internal/metrics"
	"go.uber.org/zap"
)

// Report logs err at a level matching its severity and counts it.
// Plain errors are reported as internal errors of medium severity.
func Report(log *zap.Logger, err error) {
	if err == nil {
		return
	}

	appErr, ok := As(err)
	if !ok {
		appErr = Wrap(err, ErrorTypeInternal, "INTERNAL_ERROR", "Unexpected error")
	}

	fields := []zap.Field{
		zap.String("error_type", string(appErr.Type)),
		zap.String("error_code", appErr.Code),
		zap.String("severity", string(appErr.Severity)),
	}
	if appErr.Relay != "" {
		fields = append(fields, zap.String("relay", appErr.Relay))
	}
	if appErr.Cause != nil {
		fields = append(fields, zap.Error(appErr.Cause))
	}
	if appErr.Severity == SeverityHigh || appErr.Severity == SeverityCritical {
		fields = append(fields, zap.String("stack_trace", appErr.StackTrace))
	}

	metrics.IncrementErrorCount(string(appErr.Type))

	switch appErr.Severity {
	case SeverityLow:
		log.Debug(appErr.Message, fields...)
	case SeverityMedium:
		log.Warn(appErr.Message, fields...)
	default:
		log.Error(appErr.Message, fields...)
	}
}
