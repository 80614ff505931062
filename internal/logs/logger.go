package logs

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var logger = newLogger(os.Stdout)

var severities = map[logrus.Level]string{
	logrus.TraceLevel: "TRACE",
	logrus.DebugLevel: "DEBUG",
	logrus.InfoLevel:  "INFO",
	logrus.WarnLevel:  "WARN",
	logrus.ErrorLevel: "ERROR",
	logrus.FatalLevel: "FATAL",
	logrus.PanicLevel: "PANIC",
}

// severityFormatter écrit une ligne JSON avec severity en majuscules
// ("DEBUG", "INFO", "WARN", "ERROR" & "FATAL"), message et time.
type severityFormatter struct{}

func (severityFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	data := make(logrus.Fields, len(entry.Data)+3)
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		data[k] = v
	}
	data["severity"] = severities[entry.Level]
	data["message"] = entry.Message
	data["time"] = entry.Time.Format(time.RFC3339)

	line, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encodage du log: %w", err)
	}
	return append(line, '\n'), nil
}

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(severityFormatter{})
	return l
}

// Init règle le niveau minimal ("debug", "info", "warn", "error").
func Init(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
}

// SetOutput redirige les logs (utile dans les tests).
func SetOutput(out io.Writer) {
	logger.SetOutput(out)
}

// Logger expose le logger sous-jacent, par exemple pour gorm.
func Logger() *logrus.Logger {
	return logger
}

// LogJSON écrit une ligne JSON : severity ("DEBUG", "INFO", "WARN", "ERROR" & "FATAL"),
// message, time et les champs fournis.
func LogJSON(level, message string, fields map[string]interface{}) {
	entry := logger.WithFields(logrus.Fields(fields))
	switch strings.ToUpper(level) {
	case "DEBUG":
		entry.Debug(message)
	case "WARN", "WARNING":
		entry.Warn(message)
	case "ERROR":
		entry.Error(message)
	case "FATAL":
		entry.Fatal(message)
	default:
		entry.Info(message)
	}
}
