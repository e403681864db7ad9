package dos

import (
	"github.com/netran/go-netran/internal/core/transport"
	"github.com/netran/go-netran/pkg/serialize"
	"github.com/netran/go-netran/pkg/types"
)

// ObjectFactory 客户端镜像对象工厂
//
// CreateObject 从 CREATE_OBJECT 负载反序列化出本地镜像，失败返回
// nil；DeleteObject 回收镜像（收到 DELETE_OBJECT 或连接断开时）。
type ObjectFactory interface {
	CreateObject(s serialize.Stream) Object
	DeleteObject(obj Object)
}

// ClientEvents 客户端连接级事件（全部可选）
type ClientEvents interface {
	// OnConnected 连接建立
	OnConnected()

	// OnConnectFailed 握手失败
	OnConnectFailed()

	// OnDisconnected 已建立的连接断裂（镜像已回收）
	OnDisconnected()
}

type clientOptions struct {
	transportOpts []transport.Option
	events        ClientEvents
}

// ClientOption 客户端构造选项
type ClientOption func(*clientOptions)

// WithClientTransport 透传传输层选项
func WithClientTransport(opts ...transport.Option) ClientOption {
	return func(o *clientOptions) { o.transportOpts = append(o.transportOpts, opts...) }
}

// WithClientEvents 挂接连接级事件
func WithClientEvents(ev ClientEvents) ClientOption {
	return func(o *clientOptions) { o.events = ev }
}

// Client 分布式对象系统客户端
type Client struct {
	Base

	cli       *transport.Client
	container *serialize.Container

	conn    *endpointConn
	factory ObjectFactory
	events  ClientEvents
}

var _ transport.ClientListener = (*Client)(nil)

// NewClient 创建客户端并向远端发起连接
//
// master 非 nil 时以保留 ID 0 绑定为主对象。镜像对象的创建与回收
// 交给 factory。
func NewClient(remote types.Address, master Object, factory ObjectFactory, opts ...ClientOption) (*Client, error) {
	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		Base:      newBase(),
		cli:       transport.NewClient(o.transportOpts...),
		container: serialize.NewRuntime(),
		factory:   factory,
		events:    o.events,
	}

	if master != nil {
		c.Bind(types.MasterObject, master)
	}

	c.cli.Setup(c)
	if err := c.cli.Connect(remote); err != nil {
		return nil, err
	}
	return c, nil
}

// Tick 推进客户端
func (c *Client) Tick() {
	c.cli.Tick()
}

// IsConnected 报告连接是否就绪
func (c *Client) IsConnected() bool {
	return c.conn != nil
}

// Disconnect 主动断开（不触发事件回调），并回收全部镜像
func (c *Client) Disconnect() {
	c.cli.Disconnect()
	c.teardownMirrors()
}

// Shutdown 断开并释放套接字
func (c *Client) Shutdown() {
	c.cli.Shutdown()
	c.teardownMirrors()
}

// InvokeRemoteMethod 向服务端对象发出 RMI
func (c *Client) InvokeRemoteMethod(id types.ObjectID, signature string, args []any, reliable bool) bool {
	if c.conn == nil {
		return false
	}
	return c.conn.invokeRemote(id, signature, args, reliable)
}

// ==================== 传输层回调 ====================

// OnConnectComplete 握手结束
func (c *Client) OnConnectComplete(conn *transport.Conn) {
	if conn == nil {
		logger.Warn("连接失败")
		if c.events != nil {
			c.events.OnConnectFailed()
		}
		return
	}

	ec := newEndpointConn(conn, &c.Base, c.container)
	ec.processCreate = c.processCreateObject(ec)
	ec.processDelete = c.processDeleteObject(ec)
	c.conn = ec

	logger.Info("已连接", "raddr", conn.RemoteAddress())
	if c.events != nil {
		c.events.OnConnected()
	}
}

// OnConnectionBroken 连接非本地断开
func (c *Client) OnConnectionBroken() {
	logger.Warn("连接断裂")
	c.teardownMirrors()
	if c.events != nil {
		c.events.OnDisconnected()
	}
}

// processCreateObject 处理 CREATE_OBJECT：反序列化镜像并按服务端 ID 绑定
func (c *Client) processCreateObject(ec *endpointConn) func(s serialize.Stream) bool {
	return func(s serialize.Stream) bool {
		var rawID uint64
		if err := s.U64(&rawID); err != nil {
			return false
		}

		obj := c.factory.CreateObject(s)
		if obj == nil {
			return false
		}

		c.Bind(types.ObjectID(rawID), obj)
		ec.spawned[types.ObjectID(rawID)] = struct{}{}
		return true
	}
}

// processDeleteObject 处理 DELETE_OBJECT：回收镜像并解绑
func (c *Client) processDeleteObject(ec *endpointConn) func(s serialize.Stream) bool {
	return func(s serialize.Stream) bool {
		var rawID uint64
		if err := s.U64(&rawID); err != nil {
			return false
		}
		id := types.ObjectID(rawID)

		delete(ec.spawned, id)
		if obj := c.Translate(id); obj != nil {
			c.factory.DeleteObject(obj)
		}
		c.Unbind(id)
		return true
	}
}

// teardownMirrors 回收全部由服务端生成的镜像对象
func (c *Client) teardownMirrors() {
	if c.conn == nil {
		return
	}
	for id := range c.conn.spawned {
		if obj := c.Translate(id); obj != nil {
			c.factory.DeleteObject(obj)
		}
		c.Unbind(id)
	}
	c.conn = nil
}
