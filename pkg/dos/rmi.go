package dos

import "github.com/netran/go-netran/pkg/serialize"

// Thunk 把一次入站 RMI 的参数元组解码后调用绑定方法
//
// obj 是接收方对象，类型断言失败或任何参数解码失败都返回 false。
type Thunk func(obj any, s serialize.Stream) bool

// MethodRegistry 单个对象类的方法签名注册表
//
// 签名形如 "<ClassName>::<MethodName>"，在类层级内必须唯一。
// 注册表在启动阶段显式构建（不依赖包初始化顺序），分派未命中时
// 委托给超类注册表。
type MethodRegistry struct {
	class  string
	super  *MethodRegistry
	thunks map[string]Thunk
}

// NewMethodRegistry 创建类注册表；super 为 nil 表示根类
func NewMethodRegistry(class string, super *MethodRegistry) *MethodRegistry {
	return &MethodRegistry{
		class:  class,
		super:  super,
		thunks: make(map[string]Thunk),
	}
}

// Signature 组合本类某个方法的签名
func (r *MethodRegistry) Signature(method string) string {
	return r.class + "::" + method
}

// Register 登记一个可远程调用的方法
func (r *MethodRegistry) Register(method string, thunk Thunk) *MethodRegistry {
	r.thunks[r.Signature(method)] = thunk
	return r
}

// Dispatch 按签名分派；未命中时沿超类链委托，链尽头返回 false
func (r *MethodRegistry) Dispatch(obj any, signature string, s serialize.Stream) bool {
	if thunk, ok := r.thunks[signature]; ok {
		return thunk(obj, s)
	}
	if r.super != nil {
		return r.super.Dispatch(obj, signature, s)
	}
	return false
}

// ============================================================================
//                              参数元组编解码
// ============================================================================

// Arg 按声明位置序列化单个 RMI 参数（v 为指针）
//
// 支持封闭标量集合、常用标量切片，以及实现 serialize.Serializable
// 的复合参数。
func Arg(s serialize.Stream, v any) error {
	switch x := v.(type) {
	case *bool:
		return s.Bool(x)
	case *uint8:
		return s.U8(x)
	case *uint16:
		return s.U16(x)
	case *uint32:
		return s.U32(x)
	case *uint64:
		return s.U64(x)
	case *int8:
		return s.I8(x)
	case *int16:
		return s.I16(x)
	case *int32:
		return s.I32(x)
	case *int64:
		return s.I64(x)
	case *float32:
		return s.F32(x)
	case *float64:
		return s.F64(x)
	case *string:
		return s.String(x)
	case *[]byte:
		return s.Bytes(x)
	case *[]float64:
		return serialize.Slice(s, x, serialize.F64Elem)
	case *[]float32:
		return serialize.Slice(s, x, serialize.F32Elem)
	case *[]uint64:
		return serialize.Slice(s, x, serialize.U64Elem)
	case *[]int32:
		return serialize.Slice(s, x, serialize.I32Elem)
	case serialize.Serializable:
		return x.Serialize(s)
	default:
		return ErrUnsupportedArg
	}
}

// writeArgs 写方向的参数元组：逐个取地址后复用 Arg
func writeArgs(s serialize.Stream, args []any) error {
	for _, a := range args {
		var err error
		switch x := a.(type) {
		case bool:
			err = Arg(s, &x)
		case uint8:
			err = Arg(s, &x)
		case uint16:
			err = Arg(s, &x)
		case uint32:
			err = Arg(s, &x)
		case uint64:
			err = Arg(s, &x)
		case int8:
			err = Arg(s, &x)
		case int16:
			err = Arg(s, &x)
		case int32:
			err = Arg(s, &x)
		case int64:
			err = Arg(s, &x)
		case int:
			v := int64(x)
			err = Arg(s, &v)
		case float32:
			err = Arg(s, &x)
		case float64:
			err = Arg(s, &x)
		case string:
			err = Arg(s, &x)
		case []byte:
			err = Arg(s, &x)
		case []float64:
			err = Arg(s, &x)
		case []float32:
			err = Arg(s, &x)
		case []uint64:
			err = Arg(s, &x)
		case []int32:
			err = Arg(s, &x)
		case serialize.Serializable:
			err = x.Serialize(s)
		default:
			err = ErrUnsupportedArg
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ==================== 泛型 thunk 构造器 ====================
// 每个参数按声明顺序独立解码，任何一步失败整个调用返回 false。

func readArg[T any](s serialize.Stream) (T, bool) {
	var v T
	if err := Arg(s, &v); err != nil {
		return v, false
	}
	return v, true
}

// Thunk0 无参方法
func Thunk0[O any](m func(O) bool) Thunk {
	return func(obj any, _ serialize.Stream) bool {
		o, ok := obj.(O)
		if !ok {
			return false
		}
		return m(o)
	}
}

// Thunk1 单参方法
func Thunk1[O, A1 any](m func(O, A1) bool) Thunk {
	return func(obj any, s serialize.Stream) bool {
		o, ok := obj.(O)
		if !ok {
			return false
		}
		a1, ok := readArg[A1](s)
		if !ok {
			return false
		}
		return m(o, a1)
	}
}

// Thunk2 双参方法
func Thunk2[O, A1, A2 any](m func(O, A1, A2) bool) Thunk {
	return func(obj any, s serialize.Stream) bool {
		o, ok := obj.(O)
		if !ok {
			return false
		}
		a1, ok := readArg[A1](s)
		if !ok {
			return false
		}
		a2, ok := readArg[A2](s)
		if !ok {
			return false
		}
		return m(o, a1, a2)
	}
}

// Thunk3 三参方法
func Thunk3[O, A1, A2, A3 any](m func(O, A1, A2, A3) bool) Thunk {
	return func(obj any, s serialize.Stream) bool {
		o, ok := obj.(O)
		if !ok {
			return false
		}
		a1, ok := readArg[A1](s)
		if !ok {
			return false
		}
		a2, ok := readArg[A2](s)
		if !ok {
			return false
		}
		a3, ok := readArg[A3](s)
		if !ok {
			return false
		}
		return m(o, a1, a2, a3)
	}
}

// Thunk4 四参方法
func Thunk4[O, A1, A2, A3, A4 any](m func(O, A1, A2, A3, A4) bool) Thunk {
	return func(obj any, s serialize.Stream) bool {
		o, ok := obj.(O)
		if !ok {
			return false
		}
		a1, ok := readArg[A1](s)
		if !ok {
			return false
		}
		a2, ok := readArg[A2](s)
		if !ok {
			return false
		}
		a3, ok := readArg[A3](s)
		if !ok {
			return false
		}
		a4, ok := readArg[A4](s)
		if !ok {
			return false
		}
		return m(o, a1, a2, a3, a4)
	}
}
