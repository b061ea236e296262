// Copyright 2026 - Giacomo Failla <failla.giacomo@gmail.com>
// MIT License. See LICENSE file for details.

package cdpsession

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// The module logs at debug (parse failures, orphan replies) and trace
// (full ignored-event payloads) per spec.md §7's propagation policy.
// sirupsen/logrus gives us that leveled distinction directly, replacing the
// teacher's hand-rolled JSON-line writer (logging.go's jsonLogWriter) with
// the structured logging library the wider retrieved corpus reaches for the
// same concern (grafana-k6's go.mod).
var (
	logMu     sync.RWMutex
	logTarget logrus.FieldLogger = defaultLogger()
)

func defaultLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLogger installs a logger used for all of this package's diagnostic
// output. Passing nil restores the default JSON-formatted logger. This
// mirrors the embeddable-logger shape of chromedp's WithLogf/WithErrorf
// browser options, generalized to a single structured logger.
func SetLogger(l logrus.FieldLogger) {
	logMu.Lock()
	defer logMu.Unlock()
	if l == nil {
		logTarget = defaultLogger()
		return
	}
	logTarget = l
}

func logger() logrus.FieldLogger {
	logMu.RLock()
	defer logMu.RUnlock()
	return logTarget
}
