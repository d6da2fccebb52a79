package service

import (
	"go.uber.org/zap"

	"taxbridge/internal/core/logger"
	"taxbridge/internal/features/taxcalc/domain"
	"taxbridge/internal/features/taxcalc/ports"
)

// ZapCalculationLogger records calculation outcomes when detailed logging
// is enabled. Expected failures (coded CalculationError values) log at warn
// since the host falls back to its own tax tables; anything else logs at
// error.
type ZapCalculationLogger struct {
	debugEnabled bool
}

// NewZapCalculationLogger creates a new instance of ZapCalculationLogger.
func NewZapCalculationLogger(debugEnabled bool) *ZapCalculationLogger {
	return &ZapCalculationLogger{debugEnabled: debugEnabled}
}

var _ ports.CalculationLogger = (*ZapCalculationLogger)(nil)

// LogSuccess records a completed calculation.
func (l *ZapCalculationLogger) LogSuccess(details ports.CalculationDetails) {
	if !l.debugEnabled {
		return
	}

	fields := []zap.Field{zap.String("calculation_context", details.Context)}
	fields = append(fields, l.payloadFields(details)...)
	if details.TaxDetails != nil {
		fields = append(fields,
			zap.String("rate", details.TaxDetails.Rate().String()),
			zap.Bool("has_nexus", details.TaxDetails.HasNexus()),
		)
	}

	logger.Get().Info("tax calculation applied", fields...)
}

// LogFailure records a calculation that did not complete.
func (l *ZapCalculationLogger) LogFailure(details ports.CalculationDetails) {
	if !l.debugEnabled {
		return
	}

	fields := []zap.Field{
		zap.String("calculation_context", details.Context),
		zap.Error(details.Err),
	}
	fields = append(fields, l.payloadFields(details)...)

	if domain.IsCalculationError(details.Err) {
		fields = append(fields, zap.String("error_code", string(domain.ErrorCodeOf(details.Err))))
		logger.Get().Warn("tax calculation skipped", fields...)
		return
	}

	logger.Get().Error("tax calculation failed", fields...)
}

func (l *ZapCalculationLogger) payloadFields(details ports.CalculationDetails) []zap.Field {
	if details.RequestBody == nil {
		return nil
	}

	payload, err := details.RequestBody.ToWireBytes()
	if err != nil {
		return nil
	}
	return []zap.Field{zap.ByteString("request_body", payload)}
}
