package dos

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/netran/go-netran/internal/core/transport"
	"github.com/netran/go-netran/pkg/serialize"
	"github.com/netran/go-netran/pkg/types"
)

// ServerListener 服务端连接级事件（对象系统层）
type ServerListener interface {
	// OnConnectionCreated 对端完成握手并注册进对象系统
	OnConnectionCreated(connID types.Address)

	// OnConnectionDeleted 对端断裂，自治对象已回收
	OnConnectionDeleted(connID types.Address)
}

// AutonomousPolicy 自治对象策略
//
// 设置后，每个新连接建立时服务端自动：创建实体 → 绑定新 ID →
// 向所有对端广播 CREATE_OBJECT → 把其余既有对象生成到新对端 →
// 本地标记实体为该连接自治 → 向新对端可靠地调用 SetAutonomous(true)
// （可靠消息有序，必然在实体创建之后到达）。连接断裂时其全部自治
// 对象被解绑（隐式触发 DELETE_OBJECT 扇出）并交还 Delete 回收。
type AutonomousPolicy struct {
	// New 创建新连接的自治实体
	New func() Object

	// Delete 回收自治实体（可为 nil）
	Delete func(obj Object)

	// Signature 标记自治的 RMI 签名，如 "Entity::SetAutonomous"
	Signature string
}

// KeepAlive 周期性主对象保活 RMI
//
// 可靠发送，死连接最终触发重传耗尽而被回收，无需对端应答。
type KeepAlive struct {
	Interval  time.Duration
	Signature string
}

type serverOptions struct {
	transportOpts []transport.Option
	clk           clock.Clock
	listener      ServerListener
	policy        *AutonomousPolicy
	keepAlive     *KeepAlive
}

// ServerOption 服务端构造选项
type ServerOption func(*serverOptions)

// WithServerTransport 透传传输层选项
func WithServerTransport(opts ...transport.Option) ServerOption {
	return func(o *serverOptions) { o.transportOpts = append(o.transportOpts, opts...) }
}

// WithServerClock 注入时钟（同时作用于传输层）
func WithServerClock(clk clock.Clock) ServerOption {
	return func(o *serverOptions) {
		o.clk = clk
		o.transportOpts = append(o.transportOpts, transport.WithClock(clk))
	}
}

// WithServerListener 挂接连接级事件监听器
func WithServerListener(l ServerListener) ServerOption {
	return func(o *serverOptions) { o.listener = l }
}

// WithAutonomousPolicy 启用自治对象策略
func WithAutonomousPolicy(p AutonomousPolicy) ServerOption {
	return func(o *serverOptions) { o.policy = &p }
}

// WithKeepAlive 启用保活 RMI
func WithKeepAlive(ka KeepAlive) ServerOption {
	return func(o *serverOptions) { o.keepAlive = &ka }
}

// Server 分布式对象系统服务端
type Server struct {
	Base

	srv       *transport.Server
	container *serialize.Container

	conns      map[types.Address]*endpointConn
	autonomous map[types.Address]map[types.ObjectID]struct{}

	listener  ServerListener
	policy    *AutonomousPolicy
	keepAlive *KeepAlive

	ids idGenerator

	clk       clock.Clock
	lastTick  time.Time
	kaTimeout time.Duration
}

var _ transport.ServerListener = (*Server)(nil)

// NewServer 创建并启动服务端
//
// master 非 nil 时以保留 ID 0 绑定为主对象（两端启动时都应绑定）。
func NewServer(local types.Address, master Object, opts ...ServerOption) (*Server, error) {
	o := serverOptions{clk: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{
		Base:       newBase(),
		srv:        transport.NewServer(o.transportOpts...),
		container:  serialize.NewRuntime(),
		conns:      make(map[types.Address]*endpointConn),
		autonomous: make(map[types.Address]map[types.ObjectID]struct{}),
		listener:   o.listener,
		policy:     o.policy,
		keepAlive:  o.keepAlive,
		clk:        o.clk,
	}
	s.lastTick = s.clk.Now()

	if master != nil {
		s.Bind(types.MasterObject, master)
	}

	s.srv.Setup(s)
	if err := s.srv.Host(local); err != nil {
		return nil, err
	}
	return s, nil
}

// LocalAddr 返回实际监听地址
func (s *Server) LocalAddr() types.Address {
	return s.srv.LocalAddr()
}

// Kick 强制断开对端
func (s *Server) Kick(connID types.Address) {
	s.srv.Kick(connID)
}

// Tick 推进服务端（传输层 + 保活定时器）
func (s *Server) Tick() {
	s.srv.Tick()

	now := s.clk.Now()
	elapsed := now.Sub(s.lastTick)
	s.lastTick = now

	if s.keepAlive != nil {
		if s.kaTimeout <= elapsed {
			s.InvokeRemoteMethod(nil, true, types.MasterObject, s.keepAlive.Signature, nil, true)
			s.kaTimeout = s.keepAlive.Interval
		} else {
			s.kaTimeout -= elapsed
		}
	}
}

// Shutdown 关闭服务端与全部连接
func (s *Server) Shutdown() {
	s.srv.Shutdown()
}

// Connections 返回当前已注册的对端地址集合
func (s *Server) Connections() []types.Address {
	out := make([]types.Address, 0, len(s.conns))
	for connID := range s.conns {
		out = append(out, connID)
	}
	return out
}

// ==================== 对象生命周期 ====================

// BindObject 为对象分配新 ID 并绑定
func (s *Server) BindObject(obj Object) types.ObjectID {
	id := s.ids.next()
	s.Bind(id, obj)
	return id
}

// UnbindObject 解绑对象并向所有生成过它的对端扇出 DELETE_OBJECT
func (s *Server) UnbindObject(id types.ObjectID) {
	s.DeleteRemoteObject(nil, true, id)
	s.Unbind(id)
}

// forEachTarget 解析 (connIDs, except) 扇出寻址
//
// except=false 精确命中 connIDs；except=true 命中 connIDs 之外的
// 所有连接（空集合取反即广播）。
func (s *Server) forEachTarget(connIDs []types.Address, except bool, fn func(ec *endpointConn)) {
	if !except {
		for _, connID := range connIDs {
			if ec, ok := s.conns[connID]; ok {
				fn(ec)
			}
		}
		return
	}

	excluded := make(map[types.Address]struct{}, len(connIDs))
	for _, connID := range connIDs {
		excluded[connID] = struct{}{}
	}
	for connID, ec := range s.conns {
		if _, skip := excluded[connID]; !skip {
			fn(ec)
		}
	}
}

// CreateRemoteObject 把已绑定对象生成到目标对端集合
func (s *Server) CreateRemoteObject(connIDs []types.Address, except bool, id types.ObjectID) {
	obj := s.Translate(id)
	if obj == nil {
		return
	}
	s.forEachTarget(connIDs, except, func(ec *endpointConn) {
		ec.createRemote(id, obj)
	})
}

// DeleteRemoteObject 从目标对端集合删除已绑定对象
func (s *Server) DeleteRemoteObject(connIDs []types.Address, except bool, id types.ObjectID) {
	if s.Translate(id) == nil {
		return
	}
	s.forEachTarget(connIDs, except, func(ec *endpointConn) {
		ec.deleteRemote(id)
	})
}

// InvokeRemoteMethod 向目标对端集合上的对象发出 RMI
//
// 寻址语法：
//
//	全体:       InvokeRemoteMethod(nil, true, ...)
//	除一个之外: InvokeRemoteMethod([]types.Address{connID}, true, ...)
//	指定一个:   InvokeRemoteMethod([]types.Address{connID}, false, ...)
func (s *Server) InvokeRemoteMethod(connIDs []types.Address, except bool, id types.ObjectID, signature string, args []any, reliable bool) {
	s.forEachTarget(connIDs, except, func(ec *endpointConn) {
		ec.invokeRemote(id, signature, args, reliable)
	})
}

// ==================== 传输层回调 ====================

// OnCreateConnection 新对端完成握手
func (s *Server) OnCreateConnection(c *transport.Conn) {
	connID := c.RemoteAddress()

	ec := newEndpointConn(c, &s.Base, s.container)
	s.conns[connID] = ec

	logger.Info("对端连接建立", "connID", connID)

	if s.policy != nil {
		s.spawnAutonomous(connID)
	}
	if s.listener != nil {
		s.listener.OnConnectionCreated(connID)
	}
}

// OnDeleteConnection 对端断裂
func (s *Server) OnDeleteConnection(c *transport.Conn) {
	connID := c.RemoteAddress()

	logger.Info("对端连接断裂", "connID", connID)

	s.reapAutonomous(connID)
	if s.listener != nil {
		s.listener.OnConnectionDeleted(connID)
	}

	delete(s.conns, connID)
}

// spawnAutonomous 为新连接生成自治实体并同步对象全集
func (s *Server) spawnAutonomous(connID types.Address) {
	obj := s.policy.New()
	id := s.BindObject(obj)

	// 新实体广播给所有连接（含新对端）
	s.CreateRemoteObject(nil, true, id)

	// 其余既有对象生成到新对端（常驻主对象两端各自绑定，不参与生成）
	for otherID := range s.BoundObjects() {
		if otherID != id && otherID != types.MasterObject {
			s.CreateRemoteObject([]types.Address{connID}, false, otherID)
		}
	}

	// 本地标记自治
	marks, ok := s.autonomous[connID]
	if !ok {
		marks = make(map[types.ObjectID]struct{})
		s.autonomous[connID] = marks
	}
	marks[id] = struct{}{}

	// 远端标记自治：可靠消息有序，必然晚于实体创建到达
	s.InvokeRemoteMethod([]types.Address{connID}, false, id, s.policy.Signature, []any{true}, true)
}

// reapAutonomous 回收断裂连接的全部自治实体
func (s *Server) reapAutonomous(connID types.Address) {
	for id := range s.autonomous[connID] {
		obj := s.Translate(id)
		s.UnbindObject(id)
		if s.policy != nil && s.policy.Delete != nil && obj != nil {
			s.policy.Delete(obj)
		}
	}
	delete(s.autonomous, connID)
}
