package journal

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapJournal returns a Journal backed by a zap logger. ZapJournal writes
// entries as ndjson to the file at `filepath`.
func NewZapJournal(filepath string) (*ZapJournal, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Encoding = "json"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.EncoderConfig.LevelKey = ""
	zapCfg.EncoderConfig.CallerKey = ""
	zapCfg.EncoderConfig.MessageKey = "_event"
	zapCfg.EncoderConfig.NameKey = "_topic"
	zapCfg.OutputPaths = []string{filepath}
	zapCfg.ErrorOutputPaths = []string{"stderr"}
	zapCfg.Sampling = nil

	global, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	return &ZapJournal{logger: global}, nil
}

// ZapJournal implements Journal on top of zap.
type ZapJournal struct {
	logger *zap.Logger
}

// Topic returns a Writer that records events for a topic.
func (zj *ZapJournal) Topic(topic string) Writer {
	return &zapWriter{
		logger: zj.logger.Sugar().Named(topic),
	}
}

// Close flushes buffered entries.
func (zj *ZapJournal) Close() error {
	return zj.logger.Sync()
}

type zapWriter struct {
	logger *zap.SugaredLogger
}

func (zw *zapWriter) Write(event string, kvs ...interface{}) {
	zw.logger.Infow(event, kvs...)
}
