package dos

import (
	"fmt"

	"github.com/netran/go-netran/internal/core/transport"
	"github.com/netran/go-netran/pkg/types"
)

// 进程内数据报网络（按地址投递，保序不丢包），供对象系统测试使用
type memPacket struct {
	from types.Address
	data []byte
}

type memNet struct {
	queues  map[types.Address][]memPacket
	nextEph int
}

func newMemNet() *memNet {
	return &memNet{
		queues:  make(map[types.Address][]memPacket),
		nextEph: 60000,
	}
}

func (n *memNet) socket(local types.Address) *memSocket {
	return &memSocket{net: n, bind: local}
}

type memSocket struct {
	net   *memNet
	bind  types.Address
	local types.Address
}

var _ transport.PacketSocket = (*memSocket)(nil)

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
	buf := make([]byte, len(data))
	copy(buf, data)
	s.net.queues[raddr] = append(s.net.queues[raddr], memPacket{from: s.local, data: buf})
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
