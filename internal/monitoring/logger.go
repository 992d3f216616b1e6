package monitoring

import "github.com/sirupsen/logrus"

// Logf is the package-level diagnostic logger. It defaults to the standard
// logrus logger at info level but may be replaced by SetLogger. Tests or
// production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = logrus.StandardLogger().Infof

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
