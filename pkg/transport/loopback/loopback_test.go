package loopback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burstfs/burstfs/pkg/chunkstore"
	"github.com/burstfs/burstfs/pkg/daemon"
	"github.com/burstfs/burstfs/pkg/rpcproto"
	"github.com/burstfs/burstfs/pkg/stats"
	"github.com/burstfs/burstfs/pkg/tasklet"
	"github.com/burstfs/burstfs/pkg/wbitset"
)

const testChunkSize = 16

func newTestClient(t *testing.T) *Client {
	t.Helper()
	store, err := chunkstore.New(t.TempDir(), testChunkSize, false)
	require.NoError(t, err)
	dctx := daemon.New(store, tasklet.NewPool(4), stats.New(false), testChunkSize, 0, 1)
	return New(dctx)
}

func wholeBitset(n int) []byte {
	b := wbitset.New(n)
	for i := 0; i < n; i++ {
		b.Set(i)
	}
	return b.Compress()
}

func TestClient_WriteReadViaHandlersDirectly(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)

	payload := []byte("loopback")
	wresp, err := c.Write(context.Background(), &rpcproto.WriteRequest{
		Path:           "/f",
		ChunkN:         1,
		TotalChunkSize: uint64(len(payload)),
		HostSize:       1,
		Wbitset:        wholeBitset(1),
		BulkPayload:    payload,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(0), wresp.Err)
	assert.Equal(t, uint64(len(payload)), wresp.IOSize)

	rresp, err := c.Read(context.Background(), &rpcproto.ReadRequest{
		Path:           "/f",
		ChunkN:         1,
		TotalChunkSize: uint64(len(payload)),
		HostSize:       1,
		Wbitset:        wholeBitset(1),
	})
	require.NoError(t, err)
	assert.Equal(t, payload, rresp.BulkPayload)
}

func TestClient_Truncate(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)

	resp, err := c.Truncate(context.Background(), &rpcproto.TruncateRequest{Path: "/f", Length: 0})
	require.NoError(t, err)
	assert.Equal(t, int32(0), resp.Err)
}

func TestClient_ChunkStat(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)

	resp, err := c.ChunkStat(context.Background(), &rpcproto.ChunkStatRequest{})
	require.NoError(t, err)
	assert.Equal(t, uint64(testChunkSize), resp.ChunkSize)
}

func TestClient_SatisfiesDataServiceClient(t *testing.T) {
	t.Parallel()
	var _ rpcproto.DataServiceClient = newTestClient(t)
}
