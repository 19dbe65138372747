package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMigrateLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := migrateLogger{zap.New(core)}

	assert.True(t, l.Verbose())
	l.Printf("Start buffering %d/u %s\n", 1, "create_catalog")
	assert.Equal(t, 1, logs.FilterMessage("Start buffering 1/u create_catalog").Len())

	quiet := migrateLogger{zap.NewNop()}
	assert.False(t, quiet.Verbose())
}
