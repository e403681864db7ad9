package config

import (
	"errors"
	"time"
)

// 传输层缺省参数
const (
	// DefaultRetxInterval 重传间隔
	DefaultRetxInterval = 500 * time.Millisecond

	// DefaultRetxCount 重传次数上限，耗尽即视为连接断裂
	DefaultRetxCount = 120

	// DefaultPingInterval PING 探测间隔
	DefaultPingInterval = 1000 * time.Millisecond

	// DefaultBandwidthInterval 带宽探测间隔
	DefaultBandwidthInterval = 1000 * time.Millisecond

	// DefaultMaxPacketsPerCycle 每次 Tick 最多处理的入站数据报数
	DefaultMaxPacketsPerCycle = 256

	// DefaultBandwidthProbeSize 带宽探测包大小（字节，含包头）
	DefaultBandwidthProbeSize = 512

	// DefaultMTU 数据报截断上限
	DefaultMTU = 8 * 1024
)

// TransportConfig 传输层配置
type TransportConfig struct {
	// RetxInterval 可靠包重传间隔
	RetxInterval Duration `json:"retx_interval" yaml:"retx_interval"`

	// RetxCount 单个可靠包的重传次数上限
	RetxCount int `json:"retx_count" yaml:"retx_count"`

	// PingInterval RTT 探测间隔
	PingInterval Duration `json:"ping_interval" yaml:"ping_interval"`

	// BandwidthInterval 带宽探测间隔
	BandwidthInterval Duration `json:"bandwidth_interval" yaml:"bandwidth_interval"`

	// MaxPacketsPerCycle 每次 Tick 的入站数据报预算
	MaxPacketsPerCycle int `json:"max_packets_per_cycle" yaml:"max_packets_per_cycle"`

	// BandwidthProbeSize 带宽探测包大小（含 8 字节包头）
	BandwidthProbeSize int `json:"bandwidth_probe_size" yaml:"bandwidth_probe_size"`

	// MTU 单个数据报上限
	MTU int `json:"mtu" yaml:"mtu"`
}

// DefaultTransportConfig 创建默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		RetxInterval:       Duration(DefaultRetxInterval),
		RetxCount:          DefaultRetxCount,
		PingInterval:       Duration(DefaultPingInterval),
		BandwidthInterval:  Duration(DefaultBandwidthInterval),
		MaxPacketsPerCycle: DefaultMaxPacketsPerCycle,
		BandwidthProbeSize: DefaultBandwidthProbeSize,
		MTU:                DefaultMTU,
	}
}

// Validate 校验传输配置
func (c TransportConfig) Validate() error {
	if c.RetxInterval <= 0 {
		return errors.New("transport: retx_interval must be positive")
	}
	if c.RetxCount <= 0 {
		return errors.New("transport: retx_count must be positive")
	}
	if c.PingInterval <= 0 {
		return errors.New("transport: ping_interval must be positive")
	}
	if c.BandwidthInterval <= 0 {
		return errors.New("transport: bandwidth_interval must be positive")
	}
	if c.MaxPacketsPerCycle <= 0 {
		return errors.New("transport: max_packets_per_cycle must be positive")
	}
	if c.BandwidthProbeSize < 16 || c.BandwidthProbeSize > c.MTU {
		return errors.New("transport: bandwidth_probe_size out of range")
	}
	if c.MTU < 64 {
		return errors.New("transport: mtu too small")
	}
	return nil
}
