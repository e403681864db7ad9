package datagram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netran/go-netran/pkg/types"
)

// TestParseUDPAddr 地址解析与失败退化
func TestParseUDPAddr(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		ua := ParseUDPAddr("127.0.0.1:8888")
		assert.Equal(t, "127.0.0.1", ua.IP.String())
		assert.Equal(t, 8888, ua.Port)
	})

	t.Run("ZeroPort", func(t *testing.T) {
		ua := ParseUDPAddr("0.0.0.0:0")
		assert.Equal(t, 0, ua.Port)
	})

	cases := []types.Address{"", "nonsense", "1.2.3.4", "1.2.3.4:abc", ":-1", "999.1.1.1:80x"}
	for _, addr := range cases {
		t.Run("Invalid_"+string(addr), func(t *testing.T) {
			ua := ParseUDPAddr(addr)
			assert.Equal(t, "0.0.0.0", ua.IP.String())
		})
	}

	t.Run("BadHostZeroesPort", func(t *testing.T) {
		ua := ParseUDPAddr("not-an-ip:8080")
		assert.Equal(t, "0.0.0.0", ua.IP.String())
		assert.Equal(t, 0, ua.Port)
	})
}

// TestLoopback 回环收发与非阻塞轮询
func TestLoopback(t *testing.T) {
	a := New()
	require.NoError(t, a.Init("127.0.0.1:0"))
	defer a.Term()

	b := New()
	require.NoError(t, b.Init("127.0.0.1:0"))
	defer b.Term()

	// 无数据时 Recv 立即返回 false
	_, _, ok := a.Recv()
	assert.False(t, ok)

	payload := []byte("datagram payload")
	b.Send(a.LocalAddr(), payload)

	var (
		from types.Address
		data []byte
	)
	for i := 0; i < 1000; i++ {
		from, data, ok = a.Recv()
		if ok {
			break
		}
		time.Sleep(time.Millisecond)
	}
	require.True(t, ok, "datagram not delivered")
	assert.Equal(t, payload, data)
	assert.Equal(t, b.LocalAddr(), from)
}

// TestTermIsIdempotent 重复 Term 与未初始化操作安全
func TestTermIsIdempotent(t *testing.T) {
	s := New()
	s.Term()
	s.Term()

	s.Send("127.0.0.1:1", []byte("x")) // 未初始化：空操作
	_, _, ok := s.Recv()
	assert.False(t, ok)
	assert.Equal(t, types.Address(""), s.LocalAddr())
}
