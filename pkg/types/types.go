// Package types 定义 go-netran 各层共享的基础类型
package types

// Address 是 "<ipv4>:<port>" 形式的文本地址
//
// 对上层完全不透明，仅作为连接的身份键使用。
// 解析失败的地址等价于 "0.0.0.0:0"。
type Address string

// GenericConnection 表示"无来源连接"的零值地址
const GenericConnection Address = ""

// ObjectID 分布式对象 ID
//
// 0 保留给 MasterObject（服务端与客户端启动时都会绑定的常驻对象）。
// 服务端用单调递增计数器分配新 ID，回绕时跳过 0。
type ObjectID uint64

// MasterObject MasterObject 的保留 ID
const MasterObject ObjectID = 0

// MessageType 分布式对象消息类型（负载首字节）
type MessageType uint8

const (
	// MessageInvalid 无效消息
	MessageInvalid MessageType = 0

	// MessageCreateObject 创建对象：{u64 obj_id, 对象创建参数}
	MessageCreateObject MessageType = 1

	// MessageDeleteObject 删除对象：{u64 obj_id}
	MessageDeleteObject MessageType = 2

	// MessageUpdateObject 更新对象：{u64 obj_id, 应用自定义负载}（预留）
	MessageUpdateObject MessageType = 3

	// MessageInvokeMethod 远程方法调用：{u64 obj_id, 签名, 参数元组}
	MessageInvokeMethod MessageType = 4
)
