package serialize

// ValueKind 变体值的类型标签
//
// 封闭列表，u8 标签即列表下标；前 13 项与 Kind 的标量集合对应，
// 末尾追加递归的 Struct 与 Array 两个备选。
type ValueKind uint8

const (
	ValString ValueKind = iota
	ValBytes
	ValF64
	ValF32
	ValI64
	ValU64
	ValI32
	ValU32
	ValI16
	ValU16
	ValI8
	ValU8
	ValBool
	ValStruct
	ValArray

	valInvalid
)

// Value 封闭类型列表上的带标签联合
//
// 序列化先写 u8 标签，读方向按标签构造对应备选后委托给
// 该备选自身的编码。
type Value struct {
	kind ValueKind

	str string
	raw []byte
	f64 float64
	f32 float32
	i   int64
	u   uint64
	b   bool
	st  *Struct
	arr []*Value
}

// NewValue 创建无效（空）值
func NewValue() *Value {
	return &Value{kind: valInvalid}
}

// Kind 返回当前备选的标签
func (v *Value) Kind() ValueKind { return v.kind }

// IsValid 报告值是否持有某个备选
func (v *Value) IsValid() bool { return v.kind < valInvalid }

func (v *Value) clear() {
	*v = Value{kind: valInvalid}
}

// ==================== 构造 ====================

// StringValue 构造字符串值
func StringValue(s string) *Value { return &Value{kind: ValString, str: s} }

// BytesValue 构造字节串值
func BytesValue(p []byte) *Value { return &Value{kind: ValBytes, raw: p} }

// F64Value 构造 f64 值
func F64Value(f float64) *Value { return &Value{kind: ValF64, f64: f} }

// F32Value 构造 f32 值
func F32Value(f float32) *Value { return &Value{kind: ValF32, f32: f} }

// I64Value 构造 i64 值
func I64Value(i int64) *Value { return &Value{kind: ValI64, i: i} }

// U64Value 构造 u64 值
func U64Value(u uint64) *Value { return &Value{kind: ValU64, u: u} }

// I32Value 构造 i32 值
func I32Value(i int32) *Value { return &Value{kind: ValI32, i: int64(i)} }

// U32Value 构造 u32 值
func U32Value(u uint32) *Value { return &Value{kind: ValU32, u: uint64(u)} }

// I16Value 构造 i16 值
func I16Value(i int16) *Value { return &Value{kind: ValI16, i: int64(i)} }

// U16Value 构造 u16 值
func U16Value(u uint16) *Value { return &Value{kind: ValU16, u: uint64(u)} }

// I8Value 构造 i8 值
func I8Value(i int8) *Value { return &Value{kind: ValI8, i: int64(i)} }

// U8Value 构造 u8 值
func U8Value(u uint8) *Value { return &Value{kind: ValU8, u: uint64(u)} }

// BoolValue 构造布尔值
func BoolValue(b bool) *Value { return &Value{kind: ValBool, b: b} }

// StructValue 构造嵌套结构值
func StructValue(st *Struct) *Value { return &Value{kind: ValStruct, st: st} }

// ArrayValue 构造数组值
func ArrayValue(items ...*Value) *Value { return &Value{kind: ValArray, arr: items} }

// ==================== 取值 ====================
// 标签不符时返回对应类型的零值，与原始语义保持一致。

func (v *Value) StringVal() string {
	if v.kind != ValString {
		return ""
	}
	return v.str
}

func (v *Value) BytesVal() []byte {
	if v.kind != ValBytes {
		return nil
	}
	return v.raw
}

func (v *Value) F64Val() float64 {
	if v.kind != ValF64 {
		return 0
	}
	return v.f64
}

func (v *Value) F32Val() float32 {
	if v.kind != ValF32 {
		return 0
	}
	return v.f32
}

func (v *Value) I64Val() int64 {
	if v.kind != ValI64 {
		return 0
	}
	return v.i
}

func (v *Value) U64Val() uint64 {
	if v.kind != ValU64 {
		return 0
	}
	return v.u
}

func (v *Value) I32Val() int32 {
	if v.kind != ValI32 {
		return 0
	}
	return int32(v.i)
}

func (v *Value) U32Val() uint32 {
	if v.kind != ValU32 {
		return 0
	}
	return uint32(v.u)
}

func (v *Value) I16Val() int16 {
	if v.kind != ValI16 {
		return 0
	}
	return int16(v.i)
}

func (v *Value) U16Val() uint16 {
	if v.kind != ValU16 {
		return 0
	}
	return uint16(v.u)
}

func (v *Value) I8Val() int8 {
	if v.kind != ValI8 {
		return 0
	}
	return int8(v.i)
}

func (v *Value) U8Val() uint8 {
	if v.kind != ValU8 {
		return 0
	}
	return uint8(v.u)
}

func (v *Value) BoolVal() bool {
	if v.kind != ValBool {
		return false
	}
	return v.b
}

func (v *Value) StructVal() *Struct {
	if v.kind != ValStruct {
		return nil
	}
	return v.st
}

func (v *Value) ArrayVal() []*Value {
	if v.kind != ValArray {
		return nil
	}
	return v.arr
}

// Serialize 编码/解码带标签联合
func (v *Value) Serialize(s Stream) error {
	if s.Reading() {
		v.clear()
	}

	tag := uint8(v.kind)
	if err := s.U8(&tag); err != nil {
		return err
	}
	if ValueKind(tag) > valInvalid {
		return ErrUnsupportedValue
	}
	v.kind = ValueKind(tag)

	switch v.kind {
	case ValString:
		return s.String(&v.str)
	case ValBytes:
		return s.Bytes(&v.raw)
	case ValF64:
		return s.F64(&v.f64)
	case ValF32:
		return s.F32(&v.f32)
	case ValI64:
		return s.I64(&v.i)
	case ValU64:
		return s.U64(&v.u)
	case ValI32:
		return serializeI(s, &v.i, 32)
	case ValU32:
		return serializeU(s, &v.u, 32)
	case ValI16:
		return serializeI(s, &v.i, 16)
	case ValU16:
		return serializeU(s, &v.u, 16)
	case ValI8:
		return serializeI(s, &v.i, 8)
	case ValU8:
		return serializeU(s, &v.u, 8)
	case ValBool:
		return s.Bool(&v.b)
	case ValStruct:
		if s.Reading() || v.st == nil {
			v.st = NewStruct("")
		}
		return v.st.Serialize(s)
	case ValArray:
		return Slice(s, &v.arr, func(s Stream, e **Value) error {
			if s.Reading() {
				*e = NewValue()
			}
			return (*e).Serialize(s)
		})
	}
	return nil
}

// serializeI 以指定位宽的变长编码进出内部 int64 存储
func serializeI(s Stream, v *int64, width int) error {
	switch width {
	case 8:
		x := int8(*v)
		err := s.I8(&x)
		*v = int64(x)
		return err
	case 16:
		x := int16(*v)
		err := s.I16(&x)
		*v = int64(x)
		return err
	default:
		x := int32(*v)
		err := s.I32(&x)
		*v = int64(x)
		return err
	}
}

func serializeU(s Stream, v *uint64, width int) error {
	switch width {
	case 8:
		x := uint8(*v)
		err := s.U8(&x)
		*v = uint64(x)
		return err
	case 16:
		x := uint16(*v)
		err := s.U16(&x)
		*v = uint64(x)
		return err
	default:
		x := uint32(*v)
		err := s.U32(&x)
		*v = uint64(x)
		return err
	}
}
