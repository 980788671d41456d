package networking

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAvailable(t *testing.T) {
	t.Parallel()

	t.Run("available port returns true", func(t *testing.T) {
		t.Parallel()
		// Find a truly available port by binding to :0 and releasing it.
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		port := listener.Addr().(*net.TCPAddr).Port
		require.NoError(t, listener.Close())

		assert.True(t, IsAvailable(port))
	})

	t.Run("occupied port returns false", func(t *testing.T) {
		t.Parallel()
		listener, err := net.Listen("tcp", ":0")
		require.NoError(t, err)
		defer listener.Close()
		port := listener.Addr().(*net.TCPAddr).Port

		assert.False(t, IsAvailable(port))
	})
}

func TestFindAvailable(t *testing.T) {
	t.Parallel()

	port := FindAvailable()
	require.NotZero(t, port)
	assert.GreaterOrEqual(t, port, MinPort)
	assert.LessOrEqual(t, port, MaxPort)
	assert.True(t, IsAvailable(port))
}
