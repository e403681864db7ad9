// Package transport 实现 Netran 可靠/不可靠 UDP 传输层
//
// 以 8 字节小端包头为线上格式，在 UDP 之上提供面向连接的传输：
// 三次握手、累计确认、超时重传与快速重传、RTT 探测与带宽探测。
// 整个传输层单线程协作式推进，应用以 ~1ms 周期调用端点的 Tick，
// 所有回调都在 Tick 的调用栈上触发。
package transport

import (
	"errors"

	"github.com/benbjohnson/clock"

	"github.com/netran/go-netran/config"
	"github.com/netran/go-netran/internal/core/datagram"
	"github.com/netran/go-netran/pkg/types"
)

var (
	// ErrNotMaster 只有主连接可以 Listen/Connect/Tick
	ErrNotMaster = errors.New("transport: not a master connection")

	// ErrBadState 当前状态不允许该操作
	ErrBadState = errors.New("transport: operation not allowed in current state")

	// ErrSocketInit 套接字初始化失败
	ErrSocketInit = errors.New("transport: socket init failed")
)

// PacketSocket 传输层消费的数据报套接字能力
//
// datagram.Socket 是生产实现；测试可注入内存网络或丢包链路。
type PacketSocket interface {
	Init(local types.Address) error
	Term()
	Send(raddr types.Address, data []byte)
	Recv() (types.Address, []byte, bool)
}

var _ PacketSocket = (*datagram.Socket)(nil)

// ConnListener 连接级事件监听器
//
// 监听器可以晚于数据到达再挂接：挂接前送达的可靠负载先进入
// 连接的信箱，Setup 时按原顺序冲刷给监听器。
type ConnListener interface {
	// OnIncomingData 收到一段入站负载（监听器取得所有权）
	OnIncomingData(data []byte)
}

// ServerListener 服务端连接生命周期监听器
type ServerListener interface {
	// OnCreateConnection 子连接完成握手进入 ESTABLISHED
	OnCreateConnection(c *Conn)

	// OnDeleteConnection 子连接断裂（对端 RST 或重传耗尽）
	OnDeleteConnection(c *Conn)
}

// ClientListener 客户端连接生命周期监听器
type ClientListener interface {
	// OnConnectComplete 连接尝试结束；成功时 c 非 nil，失败为 nil
	OnConnectComplete(c *Conn)

	// OnConnectionBroken 已建立的连接非本地断开
	OnConnectionBroken()
}

// ============================================================================
//                              端点选项
// ============================================================================

type options struct {
	cfg  config.TransportConfig
	clk  clock.Clock
	sock PacketSocket
}

// Option 端点构造选项
type Option func(*options)

// WithConfig 指定传输配置
func WithConfig(cfg config.TransportConfig) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithClock 注入时钟（测试用 clock.NewMock 驱动定时器）
func WithClock(clk clock.Clock) Option {
	return func(o *options) { o.clk = clk }
}

// WithSocket 注入套接字实现（测试用内存网络/丢包链路）
func WithSocket(sock PacketSocket) Option {
	return func(o *options) { o.sock = sock }
}

func buildOptions(opts []Option) options {
	o := options{
		cfg: config.DefaultTransportConfig(),
		clk: clock.New(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sock == nil {
		o.sock = datagram.New()
	}
	return o
}
