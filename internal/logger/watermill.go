package logger

import (
	"github.com/ThreeDotsLabs/watermill"
)

// WatermillAdapter bridges watermill's logger interface onto zap so queue
// internals log through the same pipeline as the rest of the process.
type WatermillAdapter struct {
	logger *Logger
	fields watermill.LogFields
}

func NewWatermillAdapter(logger *Logger) watermill.LoggerAdapter {
	return &WatermillAdapter{logger: logger}
}

func (a *WatermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.logger.Errorw(msg, a.flatten(fields.Add(watermill.LogFields{"error": err}))...)
}

func (a *WatermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.logger.Infow(msg, a.flatten(fields)...)
}

func (a *WatermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.logger.Debugw(msg, a.flatten(fields)...)
}

func (a *WatermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.logger.Debugw(msg, a.flatten(fields)...)
}

func (a *WatermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillAdapter{logger: a.logger, fields: a.fields.Add(fields)}
}

func (a *WatermillAdapter) flatten(fields watermill.LogFields) []interface{} {
	merged := a.fields.Add(fields)
	out := make([]interface{}, 0, len(merged)*2)
	for k, v := range merged {
		out = append(out, k, v)
	}
	return out
}
