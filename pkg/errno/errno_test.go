package errno

import (
	"fmt"
	"io/fs"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromError_Nil(t *testing.T) {
	t.Parallel()
	assert.Equal(t, OK, FromError(nil))
}

func TestFromError_SyscallErrno(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ENOSPC, FromError(syscall.ENOSPC))
	assert.Equal(t, ENOSPC, FromError(fmt.Errorf("write chunk: %w", syscall.ENOSPC)))
}

func TestFromError_FsSentinels(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ENOENT, FromError(fs.ErrNotExist))
	assert.Equal(t, EEXIST, FromError(fs.ErrExist))
	assert.Equal(t, int32(syscall.EACCES), FromError(fs.ErrPermission))
}

func TestFromError_UnknownFallsBackToEIO(t *testing.T) {
	t.Parallel()
	assert.Equal(t, EIO, FromError(fmt.Errorf("something unexpected happened")))
}

func TestToError_RoundTrip(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ToError(OK))
	assert.Equal(t, syscall.ENOSPC, ToError(ENOSPC))
}

func TestRetryable(t *testing.T) {
	t.Parallel()
	assert.True(t, Retryable(EBUSY))
	assert.False(t, Retryable(EIO))
	assert.False(t, Retryable(OK))
}
