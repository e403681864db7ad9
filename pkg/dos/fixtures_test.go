package dos

import (
	"github.com/netran/go-netran/pkg/serialize"
	"github.com/netran/go-netran/pkg/types"
)

// 测试夹具：带物理状态的实体与主对象，对应典型的游戏侧消费方。

type Vec3 struct {
	X, Y, Z float64
}

func (v *Vec3) Serialize(s serialize.Stream) error {
	if err := s.F64(&v.X); err != nil {
		return err
	}
	if err := s.F64(&v.Y); err != nil {
		return err
	}
	return s.F64(&v.Z)
}

// Entity 可远程调用的实体
type Entity struct {
	ObjectBase

	Pos  Vec3
	Yaw  float64
	Auto bool

	// 服务端实体持有系统引用，UpdatePhysics 会转发给发起方之外的全部对端
	srv *Server

	updates int
}

var entityMethods *MethodRegistry

func init() {
	entityMethods = newEntityMethods()
}

func newEntityMethods() *MethodRegistry {
	r := NewMethodRegistry("Entity", nil)
	r.Register("UpdatePhysics", Thunk3((*Entity).UpdatePhysics))
	r.Register("SetAutonomous", Thunk1((*Entity).SetAutonomous))
	r.Register("Test", Thunk0((*Entity).Test))
	return r
}

func (e *Entity) Serialize(s serialize.Stream) error {
	if err := e.Pos.Serialize(s); err != nil {
		return err
	}
	return s.F64(&e.Yaw)
}

func (e *Entity) Invoke(signature string, s serialize.Stream) bool {
	return entityMethods.Dispatch(e, signature, s)
}

func (e *Entity) UpdatePhysics(pos []float64, yaw float64, timestamp uint64) bool {
	if len(pos) == 3 {
		e.Pos = Vec3{pos[0], pos[1], pos[2]}
	}
	e.Yaw = yaw
	e.updates++

	if e.srv != nil {
		// 转发给发起方之外的所有对端；本地发起时发起方为空地址，等价于广播
		e.srv.InvokeRemoteMethod([]types.Address{e.InvokeConn()}, true, e.ID(),
			entityMethods.Signature("UpdatePhysics"), []any{pos, yaw, timestamp}, false)
	}
	return true
}

func (e *Entity) SetAutonomous(auto bool) bool {
	e.Auto = auto
	return true
}

func (e *Entity) Test() bool {
	return true
}

// MasterObject 两端常驻的主对象（ID 0）
type MasterObject struct {
	ObjectBase

	KeepAlives int
	Logins     []string
	SetupDone  bool
}

var masterMethods = newMasterMethods()

func newMasterMethods() *MethodRegistry {
	r := NewMethodRegistry("MasterObject", nil)
	r.Register("ClientRequestLogin", Thunk1((*MasterObject).ClientRequestLogin))
	r.Register("ServerSetupDone", Thunk0((*MasterObject).ServerSetupDone))
	r.Register("KeepAlive", Thunk0((*MasterObject).KeepAlive))
	return r
}

func (m *MasterObject) Serialize(serialize.Stream) error {
	return nil
}

func (m *MasterObject) Invoke(signature string, s serialize.Stream) bool {
	return masterMethods.Dispatch(m, signature, s)
}

func (m *MasterObject) ClientRequestLogin(credential string) bool {
	m.Logins = append(m.Logins, credential)
	return true
}

func (m *MasterObject) ServerSetupDone() bool {
	m.SetupDone = true
	return true
}

func (m *MasterObject) KeepAlive() bool {
	m.KeepAlives++
	return true
}

// mirrorFactory 客户端镜像工厂
type mirrorFactory struct {
	created []*Entity
	deleted []*Entity
}

func (f *mirrorFactory) CreateObject(s serialize.Stream) Object {
	e := &Entity{}
	if err := e.Serialize(s); err != nil {
		return nil
	}
	f.created = append(f.created, e)
	return e
}

func (f *mirrorFactory) DeleteObject(obj Object) {
	if e, ok := obj.(*Entity); ok {
		f.deleted = append(f.deleted, e)
	}
}
