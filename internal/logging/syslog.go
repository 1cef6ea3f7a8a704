package logging

import (
	"log/syslog"
	"strings"

	"github.com/pkg/errors"
)

// SyslogTag identifies hwmond in the system log.
const SyslogTag = "hwmond"

// SyslogWriter sends log records to syslog under the DAEMON facility.
// Each Write is one record; the record's level picks the syslog priority.
type SyslogWriter struct {
	writer *syslog.Writer
}

// NewSyslogWriter connects to the local syslog daemon.
func NewSyslogWriter() (*SyslogWriter, error) {
	w, err := syslog.New(syslog.LOG_INFO|syslog.LOG_DAEMON, SyslogTag)
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to syslog")
	}
	return &SyslogWriter{writer: w}, nil
}

// Write sends p to syslog.
func (sw *SyslogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	var err error
	switch recordLevel(msg) {
	case "DEBUG":
		err = sw.writer.Debug(msg)
	case "WARN":
		err = sw.writer.Warning(msg)
	case "ERROR":
		err = sw.writer.Err(msg)
	default:
		err = sw.writer.Info(msg)
	}
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close closes the syslog connection.
func (sw *SyslogWriter) Close() error {
	return sw.writer.Close()
}

// recordLevel extracts the level from a json or text slog record.
func recordLevel(msg string) string {
	for _, key := range []string{`"level":"`, "level="} {
		i := strings.Index(msg, key)
		if i < 0 {
			continue
		}
		rest := msg[i+len(key):]
		if j := strings.IndexAny(rest, `" `); j >= 0 {
			rest = rest[:j]
		}
		return rest
	}
	return ""
}
