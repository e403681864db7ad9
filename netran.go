package netran

import (
	"github.com/netran/go-netran/internal/core/transport"
	"github.com/netran/go-netran/pkg/types"
)

// Version 当前版本号
const Version = "0.1.0"

// 用户可见的传输层类型
type (
	// Address "<ipv4>:<port>" 形式的对端地址
	Address = types.Address

	// Conn 单个对端的连接
	Conn = transport.Conn

	// Server 服务端端点
	Server = transport.Server

	// Client 客户端端点
	Client = transport.Client

	// ConnListener 连接数据监听器
	ConnListener = transport.ConnListener

	// ServerListener 服务端连接生命周期监听器
	ServerListener = transport.ServerListener

	// ClientListener 客户端连接生命周期监听器
	ClientListener = transport.ClientListener

	// Option 端点构造选项
	Option = transport.Option
)

// 端点构造与选项
var (
	// NewServer 创建服务端端点
	NewServer = transport.NewServer

	// NewClient 创建客户端端点
	NewClient = transport.NewClient

	// WithConfig 指定传输配置
	WithConfig = transport.WithConfig

	// WithClock 注入时钟
	WithClock = transport.WithClock
)
