package transport

import (
	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/netran/go-netran/config"
	"github.com/netran/go-netran/pkg/types"
)

// Server 服务端端点
//
// 独占一个套接字和一个处于 LISTEN 的主连接。子连接的建立与断裂
// 通过 ServerListener 通知应用。
type Server struct {
	cfg config.TransportConfig
	clk clock.Clock

	sock     PacketSocket
	listener ServerListener
	master   *Conn
}

// NewServer 创建服务端端点
func NewServer(opts ...Option) *Server {
	o := buildOptions(opts)
	s := &Server{
		cfg:  o.cfg,
		clk:  o.clk,
		sock: o.sock,
	}
	s.master = newConn(true, o.cfg, o.clk)
	return s
}

// Setup 挂接连接生命周期监听器
func (s *Server) Setup(l ServerListener) {
	s.listener = l
}

// Host 绑定本地地址并开始监听
func (s *Server) Host(local types.Address) error {
	if err := s.sock.Init(local); err != nil {
		return errors.Wrap(err, "host")
	}
	return s.master.Listen(s)
}

// Kick 按对端地址强制断开子连接
func (s *Server) Kick(raddr types.Address) {
	s.master.Kick(raddr)
}

// Tick 推进服务端（入站处理、定时器、回调都发生在这里）
func (s *Server) Tick() {
	s.master.Tick()
}

// Shutdown 关闭服务端：所有子连接收到 RST 后释放套接字
func (s *Server) Shutdown() {
	s.master.Close()
	s.sock.Term()
}

// LocalAddr 返回实际绑定的本地地址
func (s *Server) LocalAddr() types.Address {
	if la, ok := s.sock.(interface{ LocalAddr() types.Address }); ok {
		return la.LocalAddr()
	}
	return ""
}

func (s *Server) notifyCreate(c *Conn) {
	if s.listener != nil {
		s.listener.OnCreateConnection(c)
	}
}

func (s *Server) notifyDelete(c *Conn) {
	if s.listener != nil {
		s.listener.OnDeleteConnection(c)
	}
}
