package feature

import "firestige.xyz/netcarve/internal/log"

// LogRecorder traces every feature through the process logger. It is a
// debugging aid and never fails.
type LogRecorder struct {
	logger log.Logger
}

// NewLogRecorder returns a recorder logging through logger.
func NewLogRecorder(logger log.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

// Record logs f at debug level.
func (r *LogRecorder) Record(f Feature) error {
	if !r.logger.IsDebugEnabled() {
		return nil
	}
	r.logger.WithFields(map[string]interface{}{
		"kind":   f.Kind,
		"offset": f.Offset,
	}).Debugf("%s\t%s", Escape(f.Value), Escape(f.Context))
	return nil
}
