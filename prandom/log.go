package prandom

import (
	"io"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("prandom")

// LogModules lists the logger names used across the module.
var LogModules = []string{
	"prandom",
	"prandom/server",
	"prandom/remote",
}

const logFormat = "%{time:15:04:05.000} %{module} %{level:.4s} %{message}"

// SetupLogging sends log output from every module to w at the named level
// (CRITICAL, ERROR, WARNING, NOTICE, INFO or DEBUG).
func SetupLogging(w io.Writer, level string) error {
	lvl, err := logging.LogLevel(level)
	if err != nil {
		return err
	}
	backend := logging.NewLogBackend(w, "", 0)
	formatted := logging.NewBackendFormatter(backend, logging.MustStringFormatter(logFormat))
	leveled := logging.AddModuleLevel(formatted)
	for _, m := range LogModules {
		leveled.SetLevel(lvl, m)
	}
	logging.SetBackend(leveled)
	return nil
}
