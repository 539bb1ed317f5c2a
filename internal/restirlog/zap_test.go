package restirlog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewZapDevelopment_ImplementsCoreLogger(t *testing.T) {
	logger, err := NewZapDevelopment()
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.Printf("frame %d took %d passes", 1, 10)

	framed := logger.WithFrame(3).WithPass("reprojection", 1920*1080)
	framed.Printf("reprojection complete")

	_ = logger.Sync() // stderr sync on some platforms returns a harmless error
}
