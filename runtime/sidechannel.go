package runtime

import "go.uber.org/zap"

// cstring decodes a NUL-terminated message. If no terminator exists within
// the buffer, the entire buffer is the message: a write that exactly filled
// the buffer is indistinguishable from one that was truncated, and no
// overflow signal is raised. That imprecision is part of the wire contract,
// kept for compatibility with existing modules.
func cstring(buf []byte) string {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}

// ReadError decodes the error buffer.
func (i *Instance) ReadError() (string, error) {
	buf, err := i.region(i.errPtr, i.maxErr, "errorBuffer")
	if err != nil {
		return "", err
	}
	return cstring(buf), nil
}

// ReadLog decodes the log buffer.
func (i *Instance) ReadLog() (string, error) {
	buf, err := i.region(i.logPtr, i.maxLog, "logBuffer")
	if err != nil {
		return "", err
	}
	return cstring(buf), nil
}

// notifyLog is the host half of the log protocol: the module populated the
// log buffer and invoked the notification import. Fire-and-forget; it never
// fails the surrounding call.
func (i *Instance) notifyLog() {
	msg, err := i.ReadLog()
	if err != nil {
		i.logger.Warn("log buffer unreadable", zap.Error(err))
		return
	}
	if i.logSink != nil {
		i.logSink(msg)
		return
	}
	i.logger.Info("module log", zap.String("message", msg))
}
