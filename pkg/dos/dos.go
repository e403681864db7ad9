// Package dos 实现分布式对象系统
//
// 对象注册表以 64 位数值 ID 寻址，经 Netran 传输层分发远程方法调用
// （RMI），负载用 bitstream/serialize 编码。服务端维护每连接的
// "已生成对象"集合并支持 按集合/集合取反 的扇出寻址；可选的自治对象
// 策略在连接建立/断开时自动完成实体的生成与回收。
//
// 与传输层一致，本包单线程协作式推进，所有回调都发生在 Tick 调用栈上。
package dos

import (
	"errors"

	"github.com/netran/go-netran/pkg/serialize"
	"github.com/netran/go-netran/pkg/types"
)

var (
	// ErrUnsupportedArg RMI 参数元组出现不支持的类型
	ErrUnsupportedArg = errors.New("dos: unsupported RMI argument type")

	// ErrNotConnected 客户端尚未建立连接
	ErrNotConnected = errors.New("dos: not connected")
)

// Object 分布式对象能力集
//
// Serialize 输出远端实例化所需的创建参数；Invoke 分派一次入站 RMI，
// 签名未知时返回 false。InvokeConn 只在单次 Invoke 分派期间有效，
// 携带发起方对端地址（单线程假设，非线程局部）。
type Object interface {
	Serialize(s serialize.Stream) error
	Invoke(signature string, s serialize.Stream) bool

	SetID(id types.ObjectID)
	ID() types.ObjectID

	SetInvokeConn(connID types.Address)
	InvokeConn() types.Address
}

// ObjectBase 供具体对象内嵌的公共状态
//
// 内嵌后只需实现 Serialize 与 Invoke；Invoke 的缺省实现对任何签名
// 返回 false，作为注册表委托链的末端。
type ObjectBase struct {
	id     types.ObjectID
	connID types.Address
}

// SetID 绑定系统分配的对象 ID
func (b *ObjectBase) SetID(id types.ObjectID) { b.id = id }

// ID 返回对象 ID
func (b *ObjectBase) ID() types.ObjectID { return b.id }

// SetInvokeConn 记录本次 RMI 的发起方连接
func (b *ObjectBase) SetInvokeConn(connID types.Address) { b.connID = connID }

// InvokeConn 返回本次 RMI 的发起方连接
func (b *ObjectBase) InvokeConn() types.Address { return b.connID }

// Invoke 委托链末端：未知签名
func (b *ObjectBase) Invoke(string, serialize.Stream) bool { return false }

// idGenerator 服务端对象 ID 发生器
//
// 单调递增，回绕时跳过保留的 MasterObject（0）。
type idGenerator struct {
	last types.ObjectID
}

func (g *idGenerator) next() types.ObjectID {
	g.last++
	if g.last == types.MasterObject {
		g.last++
	}
	return g.last
}
