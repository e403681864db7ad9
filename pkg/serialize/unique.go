package serialize

import "github.com/netran/go-netran/pkg/bitstream"

// UniqueString 字符串驻留策略
//
// 同一会话内重复出现的字符串只写一次原文：首次出现写
// cached=false + 原文并记录其位偏移，之后出现写 cached=true +
// u32 位偏移回引。解码端维护 偏移 → 字符串 缓存；回引未命中缓存时
// 回跳到该偏移重新物化字符串，之后恢复原位偏移。
//
// 方法签名等高频字符串经此策略编码后近乎免费。
type UniqueString struct {
	writeCache map[string]int
	readCache  map[int]string
}

// NewUniqueString 创建空会话的驻留策略
func NewUniqueString() *UniqueString {
	p := &UniqueString{}
	p.Reset()
	return p
}

func (p *UniqueString) Reset() {
	p.writeCache = make(map[string]int)
	p.readCache = make(map[int]string)
}

func (p *UniqueString) Write(w *bitstream.Writer, v any) error {
	s, ok := v.(*string)
	if !ok {
		return ErrUnsupportedValue
	}

	if offset, cached := p.writeCache[*s]; cached {
		w.WriteBool(true)
		w.WriteU32(uint32(offset))
		return nil
	}

	w.WriteBool(false)
	p.writeCache[*s] = w.BitOffset()
	w.WriteString(*s)
	return nil
}

func (p *UniqueString) Read(r *bitstream.Reader, v any) error {
	s, ok := v.(*string)
	if !ok {
		return ErrUnsupportedValue
	}

	cached, err := r.ReadBool()
	if err != nil {
		return err
	}

	if !cached {
		offset := r.BitOffset()
		str, err := r.ReadString()
		if err != nil {
			return err
		}
		p.readCache[offset] = str
		*s = str
		return nil
	}

	offset, err := r.ReadU32()
	if err != nil {
		return err
	}
	if str, ok := p.readCache[int(offset)]; ok {
		*s = str
		return nil
	}

	// 缓存未命中：回跳到原文偏移重新物化，读完恢复当前位置
	saved := r.BitOffset()
	r.SeekBit(int(offset))
	str, err := r.ReadString()
	r.SeekBit(saved)
	if err != nil {
		return ErrCacheMiss
	}
	p.readCache[int(offset)] = str
	*s = str
	return nil
}

// registerBuiltins 向预加载容器注册内建策略类并定义 "unique" 策略
func registerBuiltins(c *Container) {
	c.RegisterCreator(KindString, "UniqueStringPolicy",
		func(_ map[string]string, _ []Element) (Codec, error) {
			return NewUniqueString(), nil
		})
	c.RegisterCreator(KindF32, "UniformQuantizationPolicy", newQuantizationCreator(true))
	c.RegisterCreator(KindF64, "UniformQuantizationPolicy", newQuantizationCreator(false))

	c.Load([]Element{{
		Name:       "policy",
		Attributes: map[string]string{"name": "unique", "class": "UniqueStringPolicy"},
	}})
}
