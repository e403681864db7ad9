package dos

import (
	"github.com/netran/go-netran/pkg/lib/log"
	"github.com/netran/go-netran/pkg/serialize"
	"github.com/netran/go-netran/pkg/types"
)

var logger = log.Logger("dos")

// Base 服务端与客户端共享的对象注册表
//
// 注册表对对象只持弱引用：对象归应用（或自治策略）所有，
// 这里只做 ID → 对象 的翻译。
type Base struct {
	bound map[types.ObjectID]Object
}

func newBase() Base {
	return Base{bound: make(map[types.ObjectID]Object)}
}

// Bind 绑定对象到指定 ID（同时把 ID 写回对象）
func (b *Base) Bind(id types.ObjectID, obj Object) {
	logger.Debug("绑定对象", "id", uint64(id))
	obj.SetID(id)
	b.bound[id] = obj
}

// Unbind 解除绑定；未绑定的 ID 是空操作
func (b *Base) Unbind(id types.ObjectID) {
	logger.Debug("解绑对象", "id", uint64(id))
	delete(b.bound, id)
}

// Translate 按 ID 取对象，未绑定返回 nil
func (b *Base) Translate(id types.ObjectID) Object {
	return b.bound[id]
}

// BoundObjects 返回当前绑定表（只读遍历用）
func (b *Base) BoundObjects() map[types.ObjectID]Object {
	return b.bound
}

// ProcessInvokeMethod 解码并分派一条 INVOKE_METHOD 消息
//
// 流位置在消息类型之后。对象未绑定或签名未知都返回 false，
// 不向对端传播任何错误。
func (b *Base) ProcessInvokeMethod(connID types.Address, s serialize.Stream) bool {
	var rawID uint64
	if err := s.U64(&rawID); err != nil {
		return false
	}

	obj := b.Translate(types.ObjectID(rawID))
	if obj == nil {
		return false
	}

	var signature string
	if err := s.String(&signature, "unique"); err != nil {
		return false
	}

	// 方法实现通过 InvokeConn 取得发起方地址（单次分派内有效）
	obj.SetInvokeConn(connID)
	return obj.Invoke(signature, s)
}
