// Package serialize 实现策略驱动的序列化框架
//
// 框架以 bitstream 为底层载体，按"数据策略"决定每种类型的具体编码：
// 整数默认变长编码，浮点默认均匀量化，字符串与字节串默认字节对齐原文，
// 具名策略（如字符串驻留的 "unique"）通过策略容器按名称解析。
//
// 支持的类型是一个封闭枚举（Kind），容器按 {Kind → {名称 → 策略}}
// 组织；每次编码/解码会话开始时逐策略调用 Reset。
package serialize

import (
	"errors"

	"github.com/netran/go-netran/pkg/bitstream"
)

var (
	// ErrUnsupportedValue 策略收到了类型不匹配的值
	ErrUnsupportedValue = errors.New("serialize: unsupported value type for policy")

	// ErrUnknownCreator 元数据引用了未注册的策略类
	ErrUnknownCreator = errors.New("serialize: unknown policy creator class")

	// ErrBadMetadata 策略元数据缺少必要属性
	ErrBadMetadata = errors.New("serialize: malformed policy metadata")

	// ErrCacheMiss unique 策略回跳偏移未命中任何已解码字符串
	ErrCacheMiss = errors.New("serialize: unique string back-reference miss")
)

// Kind 封闭的受支持类型枚举
type Kind uint8

const (
	KindBool Kind = iota
	KindU8
	KindU16
	KindU32
	KindU64
	KindI8
	KindI16
	KindI32
	KindI64
	KindF32
	KindF64
	KindString
	KindBytes

	kindCount
)

var kindNames = [...]string{
	"bool", "u8", "u16", "u32", "u64", "i8", "i16", "i32", "i64",
	"f32", "f64", "string", "bytes",
}

// String 返回类型名
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Codec 单一类型的数据策略
//
// Read/Write 的 v 总是指向该策略所属 Kind 对应 Go 类型的指针
// （bool/uint8/.../float64/string/[]byte）；类型不符返回
// ErrUnsupportedValue。Reset 在每个编码或解码会话开始时调用。
type Codec interface {
	Read(r *bitstream.Reader, v any) error
	Write(w *bitstream.Writer, v any) error
	Reset()
}

// Stream 是方向无关的序列化流
//
// 对象的 Serialize 方法对编码与解码使用同一份代码：写方向从指针取值
// 写入，读方向解码后写回指针。可选的 policy 参数指定具名策略，
// 缺省使用该类型的默认策略。
type Stream interface {
	Reading() bool

	Bool(v *bool, policy ...string) error
	U8(v *uint8, policy ...string) error
	U16(v *uint16, policy ...string) error
	U32(v *uint32, policy ...string) error
	U64(v *uint64, policy ...string) error
	I8(v *int8, policy ...string) error
	I16(v *int16, policy ...string) error
	I32(v *int32, policy ...string) error
	I64(v *int64, policy ...string) error
	F32(v *float32, policy ...string) error
	F64(v *float64, policy ...string) error
	String(v *string, policy ...string) error
	Bytes(v *[]byte, policy ...string) error
}

// Serializable 可整体进出 Stream 的复合对象
type Serializable interface {
	Serialize(s Stream) error
}

func policyName(policy []string) string {
	if len(policy) > 0 {
		return policy[0]
	}
	return ""
}
