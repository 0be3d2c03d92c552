// Package log add logging utilities.
package log

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KDT2006/seabattle/internal/protocol"
	"github.com/KDT2006/seabattle/internal/session"
)

// SetLogger sets the default logger's level.
func SetLogger(level string) {
	customFormatter := new(logrus.TextFormatter)
	customFormatter.TimestampFormat = time.RFC3339
	customFormatter.FullTimestamp = true
	logrus.SetFormatter(customFormatter)
	switch strings.ToLower(level) {
	case "trace":
		logrus.SetLevel(logrus.TraceLevel)
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}

func SessionFields(sess *session.Session) logrus.Fields {
	fields := logrus.Fields{
		"session": sess.ID.String(),
		"remote":  sess.Endpoint.String(),
	}
	if sess.Username != "" {
		fields["user"] = sess.Username
	}
	if sess.LobbyID != "" {
		fields["lobby"] = sess.LobbyID
	}
	return fields
}

func MessageFields(sess *session.Session, kind protocol.MessageType) logrus.Fields {
	fields := SessionFields(sess)
	fields["type"] = string(kind)
	return fields
}
