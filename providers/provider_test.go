package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frugalops/frugal/types"
)

type fakeCapability struct {
	Capability
	name types.Provider
}

func (f *fakeCapability) Name() types.Provider { return f.name }

func TestRegistry(t *testing.T) {
	Register("fake", func(ctx context.Context, cfg Config) (Capability, error) {
		return &fakeCapability{name: "fake"}, nil
	})

	cap, err := New(context.Background(), "fake", Config{})
	require.NoError(t, err)
	assert.Equal(t, types.Provider("fake"), cap.Name())

	_, err = New(context.Background(), "nope", Config{})
	assert.Error(t, err)

	assert.Contains(t, Names(), types.Provider("fake"))
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("throttled")
	err := WrapError(types.ProviderAWS, "StopInstances", "stop i-123", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "StopInstances")

	var perr *Error
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, types.ProviderAWS, perr.Provider)
}
