// Package common provides the gateway's shared logging setup: a global
// logrus instance with stdout/stderr stream separation, and a helper for
// tagging an entry with the component that emitted it.
package common

import (
	"bytes"
	"os"

	"github.com/sirupsen/logrus"
)

// OutputSplitter routes formatted log lines to stderr when they carry
// "level=error" and to stdout otherwise, so container log collectors can
// treat the two streams differently.
type OutputSplitter struct{}

func (splitter *OutputSplitter) Write(p []byte) (n int, err error) {
	if bytes.Contains(p, []byte("level=error")) {
		return os.Stderr.Write(p)
	}
	return os.Stdout.Write(p)
}

// Logger is the gateway's global logrus instance. cmd/meshgwd sets its
// level and formatter from config.Config before any component derives an
// entry from it.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(&OutputSplitter{})
}

// NewComponentLogger returns an entry derived from Logger tagged with
// component, the shared field every package's log lines carry.
func NewComponentLogger(component string) *logrus.Entry {
	return logrus.NewEntry(Logger).WithField("component", component)
}
