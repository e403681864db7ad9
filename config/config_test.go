package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewConfig 默认配置有效
func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultRetxInterval, cfg.Transport.RetxInterval.Duration())
	assert.Equal(t, DefaultRetxCount, cfg.Transport.RetxCount)
	assert.Equal(t, DefaultMaxPacketsPerCycle, cfg.Transport.MaxPacketsPerCycle)
}

// TestFromYAML 部分覆盖的 YAML：显式字段生效，其余保持默认
func TestFromYAML(t *testing.T) {
	doc := []byte(`
transport:
  retx_interval: 250ms
  retx_count: 10
serialization:
  metadata:
    - element: policy
      attributes:
        name: ratio
        class: UniformQuantizationPolicy
        min: "0"
        max: "1"
        nbits: "8"
`)
	cfg, err := FromYAML(doc)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Transport.RetxInterval.Duration())
	assert.Equal(t, 10, cfg.Transport.RetxCount)
	// 未出现的字段保持默认
	assert.Equal(t, DefaultPingInterval, cfg.Transport.PingInterval.Duration())

	require.Len(t, cfg.Serialization.Metadata, 1)
	assert.Equal(t, "policy", cfg.Serialization.Metadata[0].Name)
	assert.Equal(t, "ratio", cfg.Serialization.Metadata[0].Attributes["name"])
}

// TestFromYAMLInvalid 非法配置被校验拒绝
func TestFromYAMLInvalid(t *testing.T) {
	_, err := FromYAML([]byte("transport:\n  retx_count: -1\n"))
	assert.Error(t, err)

	_, err = FromYAML([]byte("transport:\n  retx_interval: nonsense\n"))
	assert.Error(t, err)
}

// TestDurationYAML Duration 的文本形式
func TestDurationYAML(t *testing.T) {
	d := Duration(1500 * time.Millisecond)
	assert.Equal(t, "1.5s", d.String())

	out, err := d.MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "1.5s", out)
}
