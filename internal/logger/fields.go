package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Field keys shared across components.
const (
	FieldProvider       = "ai_provider"
	FieldModel          = "ai_model"
	FieldStage          = "stage"
	FieldCandidateField = "candidate_field"
)

// Compact turns key/value pairs into zap string fields. Pairs with a blank key
// or value are dropped, as is a trailing key without a value.
func Compact(kv ...string) []zap.Field {
	fields := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, value := strings.TrimSpace(kv[i]), strings.TrimSpace(kv[i+1])
		if key == "" || value == "" {
			continue
		}
		fields = append(fields, zap.String(key, value))
	}
	return fields
}

// With returns log enriched with fields. A nil log becomes a no-op logger.
func With(log *zap.Logger, fields ...zap.Field) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}

// ForProvider tags log with the completion provider and model.
func ForProvider(log *zap.Logger, provider, model string) *zap.Logger {
	return With(log, Compact(FieldProvider, provider, FieldModel, model)...)
}

// TurnFields locate a user turn within the conversation. field is empty
// outside of info collection.
func TurnFields(stage, field string) []zap.Field {
	return Compact(FieldStage, stage, FieldCandidateField, field)
}
