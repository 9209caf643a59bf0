package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingObserverInstall(t *testing.T) {
	SetPendingObserver(func() int64 { return 7 })
	t.Cleanup(func() { SetPendingObserver(nil) })

	fn := currentPendingObserver()
	require.NotNil(t, fn)
	assert.Equal(t, int64(7), fn())
}

func TestPendingObserverDefaultsNil(t *testing.T) {
	SetPendingObserver(nil)
	assert.Nil(t, currentPendingObserver())
}
