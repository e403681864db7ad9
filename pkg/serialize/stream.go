package serialize

import "github.com/netran/go-netran/pkg/bitstream"

// Encoder 写方向的序列化流
type Encoder struct {
	w *bitstream.Writer
	c *Container
}

var _ Stream = (*Encoder)(nil)

// NewEncoder 在容器上开启一个编码会话（重置所有策略状态）
func NewEncoder(c *Container, w *bitstream.Writer) *Encoder {
	c.ResetAll()
	return &Encoder{w: w, c: c}
}

func (e *Encoder) Reading() bool { return false }

func (e *Encoder) write(k Kind, v any, policy []string) error {
	return e.c.policy(k, policyName(policy)).Write(e.w, v)
}

func (e *Encoder) Bool(v *bool, policy ...string) error     { return e.write(KindBool, v, policy) }
func (e *Encoder) U8(v *uint8, policy ...string) error      { return e.write(KindU8, v, policy) }
func (e *Encoder) U16(v *uint16, policy ...string) error    { return e.write(KindU16, v, policy) }
func (e *Encoder) U32(v *uint32, policy ...string) error    { return e.write(KindU32, v, policy) }
func (e *Encoder) U64(v *uint64, policy ...string) error    { return e.write(KindU64, v, policy) }
func (e *Encoder) I8(v *int8, policy ...string) error       { return e.write(KindI8, v, policy) }
func (e *Encoder) I16(v *int16, policy ...string) error     { return e.write(KindI16, v, policy) }
func (e *Encoder) I32(v *int32, policy ...string) error     { return e.write(KindI32, v, policy) }
func (e *Encoder) I64(v *int64, policy ...string) error     { return e.write(KindI64, v, policy) }
func (e *Encoder) F32(v *float32, policy ...string) error   { return e.write(KindF32, v, policy) }
func (e *Encoder) F64(v *float64, policy ...string) error   { return e.write(KindF64, v, policy) }
func (e *Encoder) String(v *string, policy ...string) error { return e.write(KindString, v, policy) }
func (e *Encoder) Bytes(v *[]byte, policy ...string) error  { return e.write(KindBytes, v, policy) }

// Decoder 读方向的序列化流
type Decoder struct {
	r *bitstream.Reader
	c *Container
}

var _ Stream = (*Decoder)(nil)

// NewDecoder 在容器上开启一个解码会话（重置所有策略状态）
func NewDecoder(c *Container, r *bitstream.Reader) *Decoder {
	c.ResetAll()
	return &Decoder{r: r, c: c}
}

func (d *Decoder) Reading() bool { return true }

func (d *Decoder) read(k Kind, v any, policy []string) error {
	return d.c.policy(k, policyName(policy)).Read(d.r, v)
}

func (d *Decoder) Bool(v *bool, policy ...string) error     { return d.read(KindBool, v, policy) }
func (d *Decoder) U8(v *uint8, policy ...string) error      { return d.read(KindU8, v, policy) }
func (d *Decoder) U16(v *uint16, policy ...string) error    { return d.read(KindU16, v, policy) }
func (d *Decoder) U32(v *uint32, policy ...string) error    { return d.read(KindU32, v, policy) }
func (d *Decoder) U64(v *uint64, policy ...string) error    { return d.read(KindU64, v, policy) }
func (d *Decoder) I8(v *int8, policy ...string) error       { return d.read(KindI8, v, policy) }
func (d *Decoder) I16(v *int16, policy ...string) error     { return d.read(KindI16, v, policy) }
func (d *Decoder) I32(v *int32, policy ...string) error     { return d.read(KindI32, v, policy) }
func (d *Decoder) I64(v *int64, policy ...string) error     { return d.read(KindI64, v, policy) }
func (d *Decoder) F32(v *float32, policy ...string) error   { return d.read(KindF32, v, policy) }
func (d *Decoder) F64(v *float64, policy ...string) error   { return d.read(KindF64, v, policy) }
func (d *Decoder) String(v *string, policy ...string) error { return d.read(KindString, v, policy) }
func (d *Decoder) Bytes(v *[]byte, policy ...string) error  { return d.read(KindBytes, v, policy) }

// ============================================================================
//                              复合辅助
// ============================================================================

// Slice 序列化标量或复合元素的切片：u32 变长长度 + 逐元素
func Slice[T any](s Stream, v *[]T, elem func(Stream, *T) error) error {
	n := uint32(len(*v))
	if err := s.U32(&n); err != nil {
		return err
	}
	if s.Reading() {
		*v = make([]T, n)
	}
	for i := range *v {
		if err := elem(s, &(*v)[i]); err != nil {
			return err
		}
	}
	return nil
}

// F64Elem 供 Slice 使用的 float64 元素序列化函数
func F64Elem(s Stream, v *float64) error { return s.F64(v) }

// F32Elem 供 Slice 使用的 float32 元素序列化函数
func F32Elem(s Stream, v *float32) error { return s.F32(v) }

// U64Elem 供 Slice 使用的 uint64 元素序列化函数
func U64Elem(s Stream, v *uint64) error { return s.U64(v) }

// I32Elem 供 Slice 使用的 int32 元素序列化函数
func I32Elem(s Stream, v *int32) error { return s.I32(v) }

// StructElem 供 Slice 使用的 Serializable 元素序列化函数
func StructElem[T Serializable](s Stream, v *T) error {
	return (*v).Serialize(s)
}
