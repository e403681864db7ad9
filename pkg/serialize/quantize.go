package serialize

import (
	"strconv"

	"github.com/netran/go-netran/pkg/bitstream"
)

// Quantization 均匀量化策略
//
// 把 [Min, Max] 区间内的浮点值线性映射到 NBits 位无符号整数；
// 超界的输入裁剪到区间端点。量化误差上界为一个量化步长
// (Max-Min)/(2^NBits-1)。
type Quantization struct {
	Min, Max float64
	NBits    int

	// Float32 为真时该策略服务于 f32 值
	Float32 bool
}

// QuantizationStep 返回量化步长
func (q *Quantization) QuantizationStep() float64 {
	return (q.Max - q.Min) / float64(q.qmax())
}

func (q *Quantization) qmax() uint64 {
	return ^uint64(0) >> uint(64-q.NBits)
}

func (q *Quantization) Reset() {}

func (q *Quantization) Write(w *bitstream.Writer, v any) error {
	var f float64
	switch x := v.(type) {
	case *float32:
		if !q.Float32 {
			return ErrUnsupportedValue
		}
		f = float64(*x)
	case *float64:
		if q.Float32 {
			return ErrUnsupportedValue
		}
		f = *x
	default:
		return ErrUnsupportedValue
	}

	var quantized uint64
	if f <= q.Min {
		quantized = 0
	} else if f >= q.Max {
		quantized = q.qmax()
	} else {
		quantized = uint64((f - q.Min) / (q.Max - q.Min) * float64(q.qmax()))
	}
	w.WriteUBits(quantized, q.NBits, 64)
	return nil
}

func (q *Quantization) Read(r *bitstream.Reader, v any) error {
	quantized, err := r.ReadUBits(q.NBits, 64)
	if err != nil {
		return err
	}
	f := q.Min + float64(quantized)/float64(q.qmax())*(q.Max-q.Min)

	switch x := v.(type) {
	case *float32:
		if !q.Float32 {
			return ErrUnsupportedValue
		}
		*x = float32(f)
	case *float64:
		if q.Float32 {
			return ErrUnsupportedValue
		}
		*x = f
	default:
		return ErrUnsupportedValue
	}
	return nil
}

// newQuantizationCreator 返回 UniformQuantizationPolicy 的元数据工厂
//
// 属性：min / max 必填，nbits 可选（缺省为类型位宽）。
func newQuantizationCreator(float32Kind bool) Creator {
	return func(attrs map[string]string, _ []Element) (Codec, error) {
		mn, err1 := strconv.ParseFloat(attrs["min"], 64)
		mx, err2 := strconv.ParseFloat(attrs["max"], 64)
		if err1 != nil || err2 != nil || mx <= mn {
			return nil, ErrBadMetadata
		}

		width := 64
		if float32Kind {
			width = 32
		}
		nbits := width
		if s, ok := attrs["nbits"]; ok {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > width {
				return nil, ErrBadMetadata
			}
			nbits = n
		}

		return &Quantization{Min: mn, Max: mx, NBits: nbits, Float32: float32Kind}, nil
	}
}
