package serialize

import (
	"math"

	"github.com/netran/go-netran/pkg/bitstream"
)

// defaultCodec 返回 Kind 的默认策略
//
// 整数与布尔直接走 bitstream 的变长编码；浮点走均匀量化：
// F32 量化为 [I16MIN, I16MAX] 区间上的 32 位无符号整数，
// F64 量化为 [I32MIN, I32MAX] 区间上的 64 位无符号整数。
func defaultCodec(k Kind) Codec {
	switch k {
	case KindF32:
		return &Quantization{Min: math.MinInt16, Max: math.MaxInt16, NBits: 32, Float32: true}
	case KindF64:
		return &Quantization{Min: math.MinInt32, Max: math.MaxInt32, NBits: 64}
	default:
		return rawCodec{kind: k}
	}
}

// rawCodec 无会话状态的直通策略
type rawCodec struct {
	kind Kind
}

func (rawCodec) Reset() {}

func (c rawCodec) Write(w *bitstream.Writer, v any) error {
	switch x := v.(type) {
	case *bool:
		w.WriteBool(*x)
	case *uint8:
		w.WriteU8(*x)
	case *uint16:
		w.WriteU16(*x)
	case *uint32:
		w.WriteU32(*x)
	case *uint64:
		w.WriteU64(*x)
	case *int8:
		w.WriteI8(*x)
	case *int16:
		w.WriteI16(*x)
	case *int32:
		w.WriteI32(*x)
	case *int64:
		w.WriteI64(*x)
	case *string:
		w.WriteString(*x)
	case *[]byte:
		w.WriteBytes(*x)
	default:
		return ErrUnsupportedValue
	}
	return nil
}

func (c rawCodec) Read(r *bitstream.Reader, v any) error {
	var err error
	switch x := v.(type) {
	case *bool:
		*x, err = r.ReadBool()
	case *uint8:
		*x, err = r.ReadU8()
	case *uint16:
		*x, err = r.ReadU16()
	case *uint32:
		*x, err = r.ReadU32()
	case *uint64:
		*x, err = r.ReadU64()
	case *int8:
		*x, err = r.ReadI8()
	case *int16:
		*x, err = r.ReadI16()
	case *int32:
		*x, err = r.ReadI32()
	case *int64:
		*x, err = r.ReadI64()
	case *string:
		*x, err = r.ReadString()
	case *[]byte:
		*x, err = r.ReadBytes()
	default:
		err = ErrUnsupportedValue
	}
	return err
}
