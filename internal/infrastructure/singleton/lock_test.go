package singleton

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freePort 选取一个当前可用的端口地址
func freePort(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()
	return addr
}

// TestCheckAndLockPortAvailable 端口可用时获得 listener
func TestCheckAndLockPortAvailable(t *testing.T) {
	port := freePort(t)

	result, err := CheckAndLock(port)
	require.NoError(t, err)
	require.NotNil(t, result)
	result.Close()
}

// TestCheckAndLockUnhealthyOccupant 端口被占用且健康检查失败时返回错误
func TestCheckAndLockUnhealthyOccupant(t *testing.T) {
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer listener.Close()

	// 占用端口但不响应 /health
	result, err := CheckAndLock(listener.Addr().String())
	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "健康检查失败")
}

// TestIsAddrInUse 地址占用错误识别
func TestIsAddrInUse(t *testing.T) {
	l1, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer l1.Close()

	_, err = net.Listen("tcp", l1.Addr().String())
	require.Error(t, err)
	assert.True(t, isAddrInUse(err))

	_, err = net.Listen("tcp", "invalid")
	require.Error(t, err)
	assert.False(t, isAddrInUse(err))

	assert.False(t, isAddrInUse(nil))
}

// TestIsInstanceRunning 健康检查探测
func TestIsInstanceRunning(t *testing.T) {
	t.Run("healthy instance", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, port, err := net.SplitHostPort(server.Listener.Addr().String())
		require.NoError(t, err)

		assert.True(t, isInstanceRunning(":"+port))
	})

	t.Run("no instance", func(t *testing.T) {
		assert.False(t, isInstanceRunning(":1"))
	})

	t.Run("unhealthy status code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, port, err := net.SplitHostPort(server.Listener.Addr().String())
		require.NoError(t, err)

		assert.False(t, isInstanceRunning(":"+port))
	})
}
