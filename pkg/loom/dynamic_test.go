package loom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loom-di/loom/pkg/loom/meta"
)

type dynConfig struct {
	Endpoint string
}

func newDynamicContainer(t *testing.T) (*Container, *meta.Registry) {
	t.Helper()
	reg := meta.NewRegistry()
	return New(WithMetadata(reg)), reg
}

func TestConfigModule_BindsValue(t *testing.T) {
	c, _ := newDynamicContainer(t)
	token := NewKey("http-config")
	cfg := &dynConfig{Endpoint: "https://api"}

	mod, err := ConfigModule("http", token, cfg)
	require.NoError(t, err)
	assert.Equal(t, "http", mod.Name)

	require.NoError(t, c.Set(mod))
	got, err := c.Get(token)
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}

func TestConfigModule_BindsFactoryFunction(t *testing.T) {
	c, _ := newDynamicContainer(t)
	token := NewKey("http-config")

	mod, err := ConfigModule("http", token, func() *dynConfig {
		return &dynConfig{Endpoint: "computed"}
	})
	require.NoError(t, err)

	require.NoError(t, c.Set(mod))
	got, err := c.Get(token)
	require.NoError(t, err)
	assert.Equal(t, "computed", got.(*dynConfig).Endpoint)
}

func TestConfigModule_RetargetsProviderToken(t *testing.T) {
	c, _ := newDynamicContainer(t)
	token := NewKey("http-config")

	// The wrapper's own token is ignored; the module binds the config token.
	mod, err := ConfigModule("http", token, Value(NewKey("ignored"), "v"))
	require.NoError(t, err)

	require.NoError(t, c.Set(mod))
	got, err := c.Get(token)
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestConfigModule_BindsConstructible(t *testing.T) {
	c, reg := newDynamicContainer(t)
	require.NoError(t, meta.Describe((*dynConfig)(nil)).Register(reg))
	token := NewKey("http-config")

	mod, err := ConfigModule("http", token, (*dynConfig)(nil))
	require.NoError(t, err)

	require.NoError(t, c.Set(mod))
	got, err := c.Get(token)
	require.NoError(t, err)
	assert.IsType(t, &dynConfig{}, got)
}

func TestConfigModule_GeneratesNameWhenEmpty(t *testing.T) {
	mod, err := ConfigModule("", NewKey("t"), 1)
	require.NoError(t, err)
	assert.NotEmpty(t, mod.Name)

	other, err := ConfigModule("", NewKey("t"), 1)
	require.NoError(t, err)
	assert.NotEqual(t, mod.Name, other.Name)
}

func TestConfigModule_InvalidToken(t *testing.T) {
	var invalid *InvalidTokenError
	_, err := ConfigModule("http", 42, 1)
	require.ErrorAs(t, err, &invalid)
}

func TestConfigModuleAsync_AwaitsResolution(t *testing.T) {
	c, _ := newDynamicContainer(t)
	token := NewKey("secret")

	future := ConfigModuleAsync(context.Background(), "secrets", token, func(ctx context.Context) (any, error) {
		// Stands in for a slow path such as a network secret store.
		time.Sleep(10 * time.Millisecond)
		return "s3cr3t", nil
	})

	mod, err := future.Await(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Set(mod))
	got, err := c.Get(token)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", got)
}

func TestConfigModuleAsync_FetchErrorSurfacesOnAwait(t *testing.T) {
	boom := errors.New("vault unreachable")
	future := ConfigModuleAsync(context.Background(), "secrets", NewKey("secret"), func(ctx context.Context) (any, error) {
		return nil, boom
	})

	_, err := future.Await(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestConfigModuleAsync_AwaitHonorsContext(t *testing.T) {
	blocked := make(chan struct{})
	defer close(blocked)

	future := ConfigModuleAsync(context.Background(), "slow", NewKey("t"), func(ctx context.Context) (any, error) {
		<-blocked
		return nil, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := future.Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConfigModuleAsync_DoneSignals(t *testing.T) {
	future := ConfigModuleAsync(context.Background(), "fast", NewKey("t"), func(ctx context.Context) (any, error) {
		return 1, nil
	})

	select {
	case <-future.Done():
	case <-time.After(time.Second):
		t.Fatal("future never resolved")
	}
}
