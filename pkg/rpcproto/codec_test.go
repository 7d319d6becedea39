package rpcproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestGobCodec_RegisteredUnderName(t *testing.T) {
	t.Parallel()

	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)
	assert.Equal(t, CodecName, c.Name())
}

func TestGobCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)

	in := &WriteRequest{
		Path:           "/data/file",
		Offset:         128,
		ChunkStart:     0,
		ChunkEnd:       3,
		ChunkN:         4,
		TotalChunkSize: 4096,
		HostID:         2,
		HostSize:       8,
		Wbitset:        []byte{1, 2, 3},
		BulkPayload:    []byte("payload bytes"),
	}

	encoded, err := c.Marshal(in)
	require.NoError(t, err)

	out := new(WriteRequest)
	require.NoError(t, c.Unmarshal(encoded, out))
	assert.Equal(t, in, out)
}

func TestGobCodec_UnmarshalGarbageFails(t *testing.T) {
	t.Parallel()

	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)

	out := new(WriteRequest)
	assert.Error(t, c.Unmarshal([]byte("not gob data"), out))
}
