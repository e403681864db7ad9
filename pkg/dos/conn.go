package dos

import (
	"github.com/netran/go-netran/internal/core/transport"
	"github.com/netran/go-netran/pkg/bitstream"
	"github.com/netran/go-netran/pkg/serialize"
	"github.com/netran/go-netran/pkg/types"
)

// endpointConn 挂在单条传输连接上的分布式对象通道
//
// 作为连接监听器解复用四种消息；spawned 精确记录对端经由本连接
// 收到过 CREATE_OBJECT 且尚未收到 DELETE_OBJECT 的对象集合。
// create/delete/update 的处理按服务端/客户端注入，未注入的消息
// 按成功空操作处理。
type endpointConn struct {
	conn      *transport.Conn
	owner     *Base
	container *serialize.Container

	spawned map[types.ObjectID]struct{}

	processCreate func(s serialize.Stream) bool
	processDelete func(s serialize.Stream) bool
	processUpdate func(s serialize.Stream) bool
}

var _ transport.ConnListener = (*endpointConn)(nil)

func newEndpointConn(conn *transport.Conn, owner *Base, container *serialize.Container) *endpointConn {
	ec := &endpointConn{
		conn:      conn,
		owner:     owner,
		container: container,
		spawned:   make(map[types.ObjectID]struct{}),
	}
	conn.Setup(ec)
	return ec
}

// OnIncomingData 按消息类型字节解复用
func (ec *endpointConn) OnIncomingData(data []byte) {
	dec := serialize.NewDecoder(ec.container, bitstream.NewReader(data))

	var msgType uint8
	if err := dec.U8(&msgType); err != nil {
		return
	}

	switch types.MessageType(msgType) {
	case types.MessageCreateObject:
		if ec.processCreate != nil {
			ec.processCreate(dec)
		}
	case types.MessageDeleteObject:
		if ec.processDelete != nil {
			ec.processDelete(dec)
		}
	case types.MessageUpdateObject:
		if ec.processUpdate != nil {
			ec.processUpdate(dec)
		}
	case types.MessageInvokeMethod:
		ec.owner.ProcessInvokeMethod(ec.conn.RemoteAddress(), dec)
	}
}

// createRemote 幂等地向对端生成对象
//
// 已在 spawned 集合中时是空操作；否则发出 CREATE_OBJECT（可靠）
// 并记录。obj 为 nil 时只记录不发包。
func (ec *endpointConn) createRemote(id types.ObjectID, obj Object) bool {
	if _, ok := ec.spawned[id]; ok {
		return true
	}

	if obj != nil {
		w := bitstream.NewWriter()
		enc := serialize.NewEncoder(ec.container, w)

		msgType := uint8(types.MessageCreateObject)
		rawID := uint64(id)
		if enc.U8(&msgType) != nil || enc.U64(&rawID) != nil {
			return false
		}
		if err := obj.Serialize(enc); err != nil {
			return false
		}

		ec.conn.Send(w.Bytes(), true)
	}

	ec.spawned[id] = struct{}{}
	return true
}

// deleteRemote 幂等地删除对端对象，仅在确实生成过时发出 DELETE_OBJECT
func (ec *endpointConn) deleteRemote(id types.ObjectID) bool {
	if _, ok := ec.spawned[id]; !ok {
		return false
	}
	delete(ec.spawned, id)

	w := bitstream.NewWriter()
	enc := serialize.NewEncoder(ec.container, w)

	msgType := uint8(types.MessageDeleteObject)
	rawID := uint64(id)
	if enc.U8(&msgType) != nil || enc.U64(&rawID) != nil {
		return false
	}

	ec.conn.Send(w.Bytes(), true)
	return true
}

// invokeRemote 向对端对象发出一次 RMI
func (ec *endpointConn) invokeRemote(id types.ObjectID, signature string, args []any, reliable bool) bool {
	w := bitstream.NewWriter()
	enc := serialize.NewEncoder(ec.container, w)

	msgType := uint8(types.MessageInvokeMethod)
	rawID := uint64(id)
	if enc.U8(&msgType) != nil || enc.U64(&rawID) != nil {
		return false
	}
	if err := enc.String(&signature, "unique"); err != nil {
		return false
	}
	if err := writeArgs(enc, args); err != nil {
		return false
	}

	ec.conn.Send(w.Bytes(), reliable)
	return true
}
