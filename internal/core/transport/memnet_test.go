package transport

import (
	"fmt"

	"github.com/netran/go-netran/pkg/types"
)

// memPacket 内存链路上的单个数据报
type memPacket struct {
	from types.Address
	data []byte
}

// memNet 进程内数据报网络，按地址投递，保序不丢包
//
// 丢包、乱序等链路行为由各 memSocket 的 drop 钩子注入。
type memNet struct {
	queues  map[types.Address][]memPacket
	nextEph int
}

func newMemNet() *memNet {
	return &memNet{
		queues:  make(map[types.Address][]memPacket),
		nextEph: 50000,
	}
}

// socket 创建挂在本网络上的套接字；local 为空时 Init 分配临时端口
func (n *memNet) socket(local types.Address) *memSocket {
	return &memSocket{net: n, bind: local}
}

// inject 直接向某地址的队列塞一个来自 from 的数据报
func (n *memNet) inject(to, from types.Address, data []byte) {
	n.queues[to] = append(n.queues[to], memPacket{from: from, data: data})
}

// memSocket PacketSocket 的内存实现
type memSocket struct {
	net   *memNet
	bind  types.Address
	local types.Address

	// drop 返回 true 时丢弃该出站包
	drop func(to types.Address, data []byte) bool
}

var _ PacketSocket = (*memSocket)(nil)

func (s *memSocket) Init(local types.Address) error {
	addr := s.bind
	if local != "" {
		addr = local
	}
	if addr == "" {
		addr = types.Address(fmt.Sprintf("127.0.0.1:%d", s.net.nextEph))
		s.net.nextEph++
	}
	s.local = addr
	return nil
}

func (s *memSocket) Term() {
	s.local = ""
}

func (s *memSocket) LocalAddr() types.Address {
	return s.local
}

func (s *memSocket) Send(raddr types.Address, data []byte) {
	if s.local == "" {
		return
	}
	if s.drop != nil && s.drop(raddr, data) {
		return
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	s.net.inject(raddr, s.local, buf)
}

func (s *memSocket) Recv() (types.Address, []byte, bool) {
	if s.local == "" {
		return "", nil, false
	}
	q := s.net.queues[s.local]
	if len(q) == 0 {
		return "", nil, false
	}
	p := q[0]
	s.net.queues[s.local] = q[1:]
	return p.from, p.data, true
}

// isDataPacket 报告是否为携带负载的可靠数据包（排除握手与控制包）
func isDataPacket(data []byte) bool {
	if len(data) < HeaderSize {
		return false
	}
	h := parseHeader(data)
	return h.flags() == flagRLB && h.length > 0
}
