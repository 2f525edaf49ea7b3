package actuator

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Logging is a dry-run actuator that logs every key operation instead of
// injecting it. Used by `run --dry-run` to vet a profile against a live
// remote without touching the keyboard.
type Logging struct {
	log *logrus.Logger
}

// NewLogging returns an actuator that only logs.
func NewLogging(log *logrus.Logger) *Logging {
	if log == nil {
		log = logrus.New()
	}
	return &Logging{log: log}
}

func (l *Logging) Press(key string) error {
	l.log.Infof("press   %s", key)
	return nil
}

func (l *Logging) Release(key string) error {
	l.log.Infof("release %s", key)
	return nil
}

func (l *Logging) Tap(keys ...string) error {
	l.log.Infof("tap     %s", strings.Join(keys, "+"))
	return nil
}
