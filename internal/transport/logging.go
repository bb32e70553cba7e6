// SPDX-License-Identifier: MIT
package transport

import (
	applog "tuner/internal/log"
)

var logTransport = applog.Named("LoggingTransport")

// LoggingTransport implements the Transport interface by logging readings.
// Pitched readings are logged at info level so --no-tui shows them.
type LoggingTransport struct{}

func NewLoggingTransport() *LoggingTransport {
	logTransport.Debugf("using logging transport")
	return &LoggingTransport{}
}

func (lt *LoggingTransport) Send(data any) error {
	switch r := data.(type) {
	case Reading:
		if r.Reset {
			logTransport.Infof("silence")
			return nil
		}
		logTransport.Infof("%7.2f Hz (avg %7.2f Hz) %s", r.Frequency, r.Average, r.Note)
	default:
		logTransport.Debugf("received %T: %+v", data, data)
	}
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	logTransport.Debugf("close called")
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
