// Package config 提供 go-netran 统一配置
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/netran/go-netran/pkg/serialize"
)

// Config 聚合各子系统配置
type Config struct {
	Transport     TransportConfig     `json:"transport" yaml:"transport"`
	Serialization SerializationConfig `json:"serialization" yaml:"serialization"`
}

// SerializationConfig 序列化配置
type SerializationConfig struct {
	// Metadata 启动时加载进预加载容器的策略元数据
	Metadata []serialize.Element `json:"metadata" yaml:"metadata"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Transport: DefaultTransportConfig(),
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	return c.Transport.Validate()
}

// FromYAML 从 YAML 文本解析配置，未出现的字段保持默认值
func FromYAML(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile 从文件加载配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// ApplyMetadata 把序列化元数据加载进进程级预加载容器
func (c *Config) ApplyMetadata() {
	if len(c.Serialization.Metadata) > 0 {
		serialize.Preload().Load(c.Serialization.Metadata)
	}
}
