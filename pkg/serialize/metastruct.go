package serialize

// Field 命名字段，值为可选的 Value
//
// 字段名经 "unique" 策略编码，同一会话内重复的名字只占一次原文。
type Field struct {
	name  string
	value *Value
}

// NewField 创建无值字段
func NewField(name string) *Field {
	return &Field{name: name}
}

// Name 返回字段名
func (f *Field) Name() string { return f.name }

// HasValue 报告字段是否持有值
func (f *Field) HasValue() bool { return f.value != nil }

// Value 返回字段值，无值时返回 nil
func (f *Field) Value() *Value { return f.value }

// SetValue 设置字段值
func (f *Field) SetValue(v *Value) { f.value = v }

// Serialize 编码/解码字段：unique 字段名 + 有值标志 + 可选值
func (f *Field) Serialize(s Stream) error {
	if err := s.String(&f.name, "unique"); err != nil {
		return err
	}

	hasValue := f.value != nil
	if err := s.Bool(&hasValue); err != nil {
		return err
	}
	if !hasValue {
		if s.Reading() {
			f.value = nil
		}
		return nil
	}

	if s.Reading() {
		f.value = NewValue()
	}
	return f.value.Serialize(s)
}

// Struct 无模式的递归结构负载
//
// 字段保持元数据定义顺序存放；名字 → 下标的映射在解码后重建。
type Struct struct {
	name     string
	fields   []*Field
	mappings map[string]int
}

// NewStruct 创建空结构
func NewStruct(name string) *Struct {
	return &Struct{
		name:     name,
		mappings: make(map[string]int),
	}
}

// Name 返回结构名（类型标识，不同于字段名）
func (st *Struct) Name() string { return st.name }

// SetName 设置结构名
func (st *Struct) SetName(name string) { st.name = name }

// HasField 报告是否存在指定名字的字段
func (st *Struct) HasField(name string) bool {
	_, ok := st.mappings[name]
	return ok
}

// Field 按名字取字段，不存在时返回 nil
func (st *Struct) Field(name string) *Field {
	if i, ok := st.mappings[name]; ok {
		return st.fields[i]
	}
	return nil
}

// AddField 追加字段；名字已存在时返回既有字段
func (st *Struct) AddField(name string) *Field {
	if i, ok := st.mappings[name]; ok {
		return st.fields[i]
	}
	f := NewField(name)
	st.fields = append(st.fields, f)
	st.mappings[name] = len(st.fields) - 1
	return f
}

// Fields 按定义顺序返回全部字段
func (st *Struct) Fields() []*Field { return st.fields }

// Serialize 编码/解码结构：unique 结构名 + 字段序列，读方向重建名字映射
func (st *Struct) Serialize(s Stream) error {
	if err := s.String(&st.name, "unique"); err != nil {
		return err
	}

	if err := Slice(s, &st.fields, func(s Stream, f **Field) error {
		if s.Reading() {
			*f = NewField("")
		}
		return (*f).Serialize(s)
	}); err != nil {
		return err
	}

	if s.Reading() {
		st.mappings = make(map[string]int, len(st.fields))
		for i, f := range st.fields {
			st.mappings[f.Name()] = i
		}
	}
	return nil
}
