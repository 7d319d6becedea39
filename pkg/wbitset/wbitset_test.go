package wbitset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetAndTest(t *testing.T) {
	t.Parallel()

	b := New(10)
	b.Set(0)
	b.Set(5)
	b.Set(9)

	for i := 0; i < 10; i++ {
		want := i == 0 || i == 5 || i == 9
		assert.Equal(t, want, b.Test(i), "bit %d", i)
	}
}

func TestTest_OutOfRange(t *testing.T) {
	t.Parallel()

	b := New(4)
	assert.False(t, b.Test(-1))
	assert.False(t, b.Test(4))
	assert.False(t, b.Test(1000))
}

func TestCompressDecompress_RoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		n    int
		bits []int
	}{
		{"empty", 8, nil},
		{"all clear", 8, nil},
		{"all set", 8, []int{0, 1, 2, 3, 4, 5, 6, 7}},
		{"single bit middle", 16, []int{7}},
		{"alternating", 8, []int{0, 2, 4, 6}},
		{"leading run then set", 100, []int{50, 51, 52, 99}},
		{"first bit only", 1, []int{0}},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			b := New(c.n)
			for _, i := range c.bits {
				b.Set(i)
			}
			encoded := b.Compress()
			decoded := Decompress(encoded, c.n)

			assert.Equal(t, c.n, decoded.Len())
			for i := 0; i < c.n; i++ {
				assert.Equal(t, b.Test(i), decoded.Test(i), "bit %d", i)
			}
		})
	}
}

func TestCompress_EmptyBitsetProducesEmptyWire(t *testing.T) {
	t.Parallel()

	b := New(0)
	assert.Empty(t, b.Compress())
}
