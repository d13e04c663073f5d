package log_test

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/pipelined/pedals/log"
)

func TestGetLogger(t *testing.T) {
	l := log.GetLogger()
	assert.NotNil(t, l)

	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.WithField("runner", "test").Warn("underrun")
	assert.Contains(t, buf.String(), "underrun")
	assert.Contains(t, buf.String(), "runner=test")
	assert.NotEqual(t, logrus.TraceLevel, l.GetLevel())
}
