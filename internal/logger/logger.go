package logger

import (
	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// Init sets up the process-wide structured logger.
func Init(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// JSON for production, text is opted into via SetTextFormatter.
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter switches logs to a human-readable format (development).
func SetTextFormatter() {
	if Log != nil {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}
