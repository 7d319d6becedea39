package pool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

// stubClient wraps the *grpc.ClientConn the factory was handed, so tests
// can tell whether Get reused a connection or dialed a new one.
type stubClient struct {
	cc grpc.ClientConnInterface
}

func newStubFactory(calls *int) ClientFactory[*stubClient] {
	return func(cc grpc.ClientConnInterface) *stubClient {
		*calls++
		return &stubClient{cc: cc}
	}
}

func TestPool_Get_ReusesConnectionForSameAddress(t *testing.T) {
	t.Parallel()
	var calls int
	p := NewPool(newStubFactory(&calls))
	t.Cleanup(func() { p.Close() })

	c1, err := p.Get(context.Background(), "127.0.0.1:1")
	require.NoError(t, err)
	c2, err := p.Get(context.Background(), "127.0.0.1:1")
	require.NoError(t, err)

	assert.Same(t, c1, c2)
	assert.Equal(t, 1, calls)
}

func TestPool_Get_DistinctAddressesGetDistinctClients(t *testing.T) {
	t.Parallel()
	var calls int
	p := NewPool(newStubFactory(&calls))
	t.Cleanup(func() { p.Close() })

	c1, err := p.Get(context.Background(), "127.0.0.1:1")
	require.NoError(t, err)
	c2, err := p.Get(context.Background(), "127.0.0.1:2")
	require.NoError(t, err)

	assert.NotSame(t, c1, c2)
	assert.Equal(t, 2, calls)
	assert.ElementsMatch(t, []string{"127.0.0.1:1", "127.0.0.1:2"}, p.Addresses())
}

func TestPool_Remove_ClosesAndForgetsHost(t *testing.T) {
	t.Parallel()
	var calls int
	p := NewPool(newStubFactory(&calls))
	t.Cleanup(func() { p.Close() })

	_, err := p.Get(context.Background(), "127.0.0.1:1")
	require.NoError(t, err)
	require.Len(t, p.Addresses(), 1)

	p.Remove("127.0.0.1:1")
	assert.Empty(t, p.Addresses())

	_, err = p.Get(context.Background(), "127.0.0.1:1")
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "removing a host should force a fresh connection next Get")
}

func TestPool_Remove_UnknownAddressIsNoop(t *testing.T) {
	t.Parallel()
	var calls int
	p := NewPool(newStubFactory(&calls))
	t.Cleanup(func() { p.Close() })

	assert.NotPanics(t, func() { p.Remove("127.0.0.1:9") })
}

func TestPool_Close_RejectsFurtherGets(t *testing.T) {
	t.Parallel()
	var calls int
	p := NewPool(newStubFactory(&calls))

	_, err := p.Get(context.Background(), "127.0.0.1:1")
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.Empty(t, p.Addresses())

	_, err = p.Get(context.Background(), "127.0.0.1:1")
	assert.Error(t, err)
}

func TestPool_Close_IsIdempotent(t *testing.T) {
	t.Parallel()
	var calls int
	p := NewPool(newStubFactory(&calls))
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
}

func TestPool_ConnsPerHostOption_BoundsPoolSize(t *testing.T) {
	t.Parallel()
	var calls int
	p := NewPool(newStubFactory(&calls), WithConnsPerHost(1))
	t.Cleanup(func() { p.Close() })

	for i := 0; i < 5; i++ {
		_, err := p.Get(context.Background(), "127.0.0.1:1")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls, "idle connections should be reused rather than redialed")
}
