package serialize

import "sync"

// Element 策略元数据节点
//
// Name 为 "policy" 或 "alias"；policy 元素通过 name/class 属性实例化
// 已注册的策略类，alias 元素把新名称指向既有策略。Children 原样交给
// 策略类的工厂；内建的量化策略类不使用它。
type Element struct {
	Name       string            `yaml:"element" json:"element"`
	Attributes map[string]string `yaml:"attributes" json:"attributes"`
	Children   []Element         `yaml:"children" json:"children"`
}

// Creator 按元数据实例化某个策略类
type Creator func(attrs map[string]string, children []Element) (Codec, error)

// node 单一 Kind 的策略注册表
type node struct {
	creators map[string]Creator
	policies map[string]Codec
	aliases  map[string]string
	elements []Element
	def      Codec
}

func (n *node) load(elements []Element) {
	for _, e := range elements {
		switch e.Name {
		case "policy":
			name, class := e.Attributes["name"], e.Attributes["class"]
			if name == "" || class == "" {
				continue
			}
			creator, ok := n.creators[class]
			if !ok {
				continue
			}
			p, err := creator(e.Attributes, e.Children)
			if err != nil {
				continue
			}
			n.policies[name] = p

		case "alias":
			name, target := e.Attributes["name"], e.Attributes["policy"]
			if name == "" || target == "" {
				continue
			}
			if _, ok := n.policies[target]; ok {
				n.aliases[name] = target
			}
		}
	}
	n.elements = append(n.elements, elements...)
}

func (n *node) policy(name string) Codec {
	if name != "" {
		if target, ok := n.aliases[name]; ok {
			name = target
		}
		if p, ok := n.policies[name]; ok {
			return p
		}
	}
	return n.def
}

// Container 类型索引的策略容器
//
// 每个受支持的 Kind 持有独立的 {类名 → 工厂}、{策略名 → 策略}、
// {别名 → 策略名} 三张表，以及一个默认策略。
type Container struct {
	nodes [kindCount]node
}

// NewContainer 创建带默认策略的空容器
func NewContainer() *Container {
	c := &Container{}
	for k := Kind(0); k < kindCount; k++ {
		c.nodes[k] = node{
			creators: make(map[string]Creator),
			policies: make(map[string]Codec),
			aliases:  make(map[string]string),
			def:      defaultCodec(k),
		}
	}
	return c
}

// RegisterCreator 注册策略类工厂
//
// 同一个类名可以在多个 Kind 下注册；元数据加载时只有注册了该类的
// Kind 会实例化出策略。
func (c *Container) RegisterCreator(k Kind, class string, creator Creator) bool {
	c.nodes[k].creators[class] = creator
	return true
}

// Load 把元数据应用到所有 Kind 的注册表
func (c *Container) Load(elements []Element) {
	for k := Kind(0); k < kindCount; k++ {
		c.nodes[k].load(elements)
	}
}

// Setup 从预加载容器快照出运行时注册表
//
// 工厂表直接复制；已加载的元数据在本容器上重放，从而得到
// 互不共享会话状态的全新策略实例。
func (c *Container) Setup(pre *Container) {
	for k := Kind(0); k < kindCount; k++ {
		src, dst := &pre.nodes[k], &c.nodes[k]
		for class, creator := range src.creators {
			dst.creators[class] = creator
		}
		dst.load(src.elements)
	}
}

// ResetAll 重置所有策略的会话状态，每个新的编码/解码会话开始时调用
func (c *Container) ResetAll() {
	for k := Kind(0); k < kindCount; k++ {
		n := &c.nodes[k]
		for _, p := range n.policies {
			p.Reset()
		}
		n.def.Reset()
	}
}

func (c *Container) policy(k Kind, name string) Codec {
	return c.nodes[k].policy(name)
}

// ============================================================================
//                              进程级预加载
// ============================================================================

var (
	preloadOnce sync.Once
	preload     *Container
)

// Preload 返回进程级预加载容器单例
//
// 启动阶段通过 RegisterCreator / DefinePolicy / Load 填充；
// 运行时容器用 Setup(Preload()) 快照出自己的注册表。
func Preload() *Container {
	preloadOnce.Do(func() {
		preload = NewContainer()
		registerBuiltins(preload)
	})
	return preload
}

// NewRuntime 创建一个从预加载容器快照出来的运行时容器
func NewRuntime() *Container {
	c := NewContainer()
	c.Setup(Preload())
	return c
}

// DefinePolicy 在预加载容器中用既有策略类定义一个具名策略
func DefinePolicy(name, class string) {
	Preload().Load([]Element{{
		Name:       "policy",
		Attributes: map[string]string{"name": name, "class": class},
	}})
}
