// Package bitstream 实现位级读写与变长整数编码
//
// 位打包规则：每个字节内高位在前（MSB-first），多字节整数按小端字节序
// 写入其有效字节，因此任何主机字节序下产生完全相同的位图。
//
// 无符号整数默认采用变长编码：先写 N_PREFIX_BITS 位的前缀字段
// （值为有效位数-1，8/16/32/64 位类型的前缀宽度分别为 3/4/5/6），
// 再写有效位本身；0 的负载只占 1 位。
// 有符号整数写 1 位符号 + 二补数绝对值的无符号编码。
// 字符串与字节串为 u32 变长长度 + 字节对齐的原始内容。
package bitstream

import (
	"errors"
	"math/bits"
)

// ErrShortBuffer 读取越过输入末尾
var ErrShortBuffer = errors.New("bitstream: read past end of input")

// 各类型变长编码的前缀位宽
const (
	prefixBits8  = 3
	prefixBits16 = 4
	prefixBits32 = 5
	prefixBits64 = 6
)

// effectiveBits 返回 u 的有效位数（最高置位的位置 + 1，0 返回 0）
func effectiveBits(u uint64) int {
	return bits.Len64(u)
}

// combine 合并符号位与数值（全部二补数运算）
//
// mask = -(s & 1)；结果 = (u ^ mask) - mask
func combine(s, u uint64) uint64 {
	mask := -(s & 1)
	return (u ^ mask) - mask
}

// signOf 取二补数数值的符号位（数值须已符号扩展到 64 位）
func signOf(u uint64) uint64 {
	return u >> 63
}

// absolute 取二补数绝对值
func absolute(u uint64) uint64 {
	return combine(signOf(u), u)
}

// signedRange 返回 nbits 位有符号映射的 [mn, mx] 区间
func signedRange(nbits int) (mn, mx int64) {
	mx = int64(uint64(1)<<uint(nbits-1) - 1)
	mn = -mx - 1
	return
}
