package monitoring

import (
	"io"
	"os"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggerSetupParams configures the process-wide logger.
type LoggerSetupParams struct {
	LogFileName   string // empty writes to stderr only
	LogToStderr   bool   // tee to stderr when a log file is set
	LogLevel      string
	LogFormatJSON bool
}

// Setup configures logger from params and points Logf at it. A nil logger
// configures the logrus standard logger. The returned closer flushes and
// closes the rotating log file, if any.
func Setup(logger *logrus.Logger, params LoggerSetupParams) io.Closer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if params.LogFormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&formatter.Formatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			HideKeys:        false,
			NoColors:        params.LogFileName != "",
			FieldsOrder:     []string{"component", "job", "exercise"},
		})
	}

	logger.SetLevel(GetLevel(params.LogLevel))
	SetLogger(logger.Infof)

	if params.LogFileName == "" {
		logger.SetOutput(os.Stderr)
		return nopCloser{}
	}

	if !strings.HasSuffix(params.LogFileName, ".log") {
		params.LogFileName += ".log"
	}

	rotating := &lumberjack.Logger{
		Filename:   params.LogFileName,
		MaxSize:    50, // megabytes
		MaxBackups: 10,
		LocalTime:  false, // false -> use UTC
		Compress:   true,
	}

	if params.LogToStderr {
		logger.SetOutput(io.MultiWriter(os.Stderr, rotating))
	} else {
		logger.SetOutput(rotating)
	}
	return rotating
}

// GetLevel parses a level name. Unknown names fall back to info.
func GetLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
