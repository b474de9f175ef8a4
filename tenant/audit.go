package tenant

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AuditLog appends document lifecycle events to a JSON log file. A nil
// AuditLog records nothing.
type AuditLog struct {
	fileName string
	logger   *zap.Logger
}

func NewAuditLog(fileName string) (*AuditLog, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.StacktraceKey = ""
	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)
	logFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	writer := zapcore.AddSync(logFile)
	core := zapcore.NewTee(zapcore.NewCore(fileEncoder, writer, zapcore.InfoLevel))
	return &AuditLog{
		fileName: fileName,
		logger:   zap.New(core),
	}, nil
}

func (a *AuditLog) RecordTransition(tenantID string, docID string, from string, to string) {
	if a == nil {
		return
	}
	a.logger.Info("transition", zap.String("tenant", tenantID), zap.String("id", docID),
		zap.String("from", from), zap.String("to", to))
}

func (a *AuditLog) RecordRollback(tenantID string, docID string) {
	if a == nil {
		return
	}
	a.logger.Info("rollback", zap.String("tenant", tenantID), zap.String("id", docID))
}
