package transport

import (
	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/netran/go-netran/config"
	"github.com/netran/go-netran/pkg/types"
)

// Client 客户端端点
//
// 独占一个套接字和一个代表唯一出站连接的主连接。
type Client struct {
	cfg config.TransportConfig
	clk clock.Clock

	sock     PacketSocket
	listener ClientListener
	master   *Conn
}

// NewClient 创建客户端端点
func NewClient(opts ...Option) *Client {
	o := buildOptions(opts)
	c := &Client{
		cfg:  o.cfg,
		clk:  o.clk,
		sock: o.sock,
	}
	c.master = newConn(true, o.cfg, o.clk)
	return c
}

// Setup 挂接连接生命周期监听器
func (c *Client) Setup(l ClientListener) {
	c.listener = l
}

// Connect 绑定本地临时端口并向远端发起握手
func (c *Client) Connect(raddr types.Address) error {
	if err := c.sock.Init(""); err != nil {
		return errors.Wrap(err, "connect")
	}
	return c.master.Connect(raddr, c)
}

// Disconnect 主动断开，不触发回调
func (c *Client) Disconnect() {
	c.master.Close()
}

// Tick 推进客户端
func (c *Client) Tick() {
	c.master.Tick()
}

// Shutdown 断开连接并释放套接字
func (c *Client) Shutdown() {
	c.master.Close()
	c.sock.Term()
}

func (c *Client) notifyConnectComplete(conn *Conn) {
	if c.listener != nil {
		c.listener.OnConnectComplete(conn)
	}
}

func (c *Client) notifyBroken() {
	if c.listener != nil {
		c.listener.OnConnectionBroken()
	}
}
