// Package datagram 实现非阻塞 UDP 数据报套接字
package datagram

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"

	"github.com/netran/go-netran/pkg/lib/log"
	"github.com/netran/go-netran/pkg/types"
)

var logger = log.Logger("core/datagram")

// MaxPacketSize 单个数据报的截断上限（8 KiB MTU）
const MaxPacketSize = 8 * 1024

// ParseUDPAddr 解析 "<ipv4>:<port>" 地址
//
// 任意解析失败都退化为 0.0.0.0:0。
func ParseUDPAddr(addr types.Address) *net.UDPAddr {
	zero := &net.UDPAddr{IP: net.IPv4zero}

	host, portText, ok := strings.Cut(string(addr), ":")
	if !ok {
		return zero
	}
	port, err := strconv.Atoi(portText)
	if err != nil || port < 0 || port > 65535 {
		return zero
	}
	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil {
		return zero
	}
	return &net.UDPAddr{IP: ip.To4(), Port: port}
}

// Socket 非阻塞 UDP 套接字
//
// Send 尽力而为不阻塞不重试；Recv 轮询一次，无数据立即返回 false。
// 不做任何排序与可靠性保证，这些由上层连接补偿。
type Socket struct {
	pc  *net.UDPConn
	rc  syscall.RawConn
	buf []byte
}

// New 创建未初始化的套接字
func New() *Socket {
	return &Socket{buf: make([]byte, MaxPacketSize)}
}

// Init 绑定本地地址并进入可收发状态
func (s *Socket) Init(local types.Address) error {
	s.Term()

	pc, err := net.ListenUDP("udp4", ParseUDPAddr(local))
	if err != nil {
		return errors.Wrap(err, "datagram: bind")
	}
	rc, err := pc.SyscallConn()
	if err != nil {
		pc.Close()
		return errors.Wrap(err, "datagram: raw conn")
	}

	s.pc, s.rc = pc, rc
	logger.Debug("套接字已绑定", "local", pc.LocalAddr().String())
	return nil
}

// Term 关闭套接字
func (s *Socket) Term() {
	if s.pc != nil {
		s.pc.Close()
		s.pc, s.rc = nil, nil
	}
}

// LocalAddr 返回实际绑定的本地地址（端口 0 绑定后可取到真实端口）
func (s *Socket) LocalAddr() types.Address {
	if s.pc == nil {
		return ""
	}
	return types.Address(s.pc.LocalAddr().String())
}

// Send 把数据报发往指定地址，尽力而为
func (s *Socket) Send(raddr types.Address, data []byte) {
	if s.pc == nil {
		return
	}
	if len(data) > MaxPacketSize {
		data = data[:MaxPacketSize]
	}
	if _, err := s.pc.WriteToUDP(data, ParseUDPAddr(raddr)); err != nil {
		logger.Debug("发送失败", "raddr", raddr, "err", err)
	}
}

// Recv 非阻塞接收一个数据报
//
// 无数据（或任何错误）时返回 ok=false，绝不阻塞。
func (s *Socket) Recv() (types.Address, []byte, bool) {
	if s.rc == nil {
		return "", nil, false
	}

	var (
		n    int
		sa   syscall.Sockaddr
		rerr error
	)
	ioErr := s.rc.Read(func(fd uintptr) bool {
		n, sa, rerr = syscall.Recvfrom(int(fd), s.buf, 0)
		return true // 只尝试一次，不等待可读
	})
	if ioErr != nil || rerr != nil || n <= 0 {
		return "", nil, false
	}

	sin, ok := sa.(*syscall.SockaddrInet4)
	if !ok {
		return "", nil, false
	}
	raddr := types.Address(fmt.Sprintf("%d.%d.%d.%d:%d",
		sin.Addr[0], sin.Addr[1], sin.Addr[2], sin.Addr[3], sin.Port))

	out := make([]byte, n)
	copy(out, s.buf[:n])
	return raddr, out, true
}
