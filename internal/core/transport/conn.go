package transport

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/netran/go-netran/config"
	"github.com/netran/go-netran/pkg/lib/log"
	"github.com/netran/go-netran/pkg/types"
)

var logger = log.Logger("core/transport")

// State 连接状态
type State uint8

const (
	StateClosed State = iota
	StateListen
	StateSynSent
	StateSynRcvd
	StateEstablished
)

var stateNames = [...]string{"CLOSED", "LISTEN", "SYNSENT", "SYNRCVD", "ESTABLISHED"}

// String 返回状态名
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}

// Conn 单个对端的连接状态机
//
// 主连接由端点持有：服务端主连接进入 LISTEN 并孵化子连接，客户端
// 主连接代表唯一的出站连接。子连接只存在于服务端主连接的孵化表里，
// 与主连接共享端点的套接字（弱引用，套接字归端点所有）。
type Conn struct {
	master  bool
	traceID string

	cfg config.TransportConfig
	clk clock.Clock

	state State

	children map[types.Address]*Conn

	server *Server
	client *Client
	sock   PacketSocket

	listener ConnListener
	mailbox  [][]byte

	raddr types.Address

	unreliableOut uint16
	unreliableIn  uint16

	reliableOut      uint16
	lowestAcceptable uint16
	latestLegalAck   uint16
	dupAcks          int

	retx       retxQueue
	reassembly map[uint16][]byte

	pingRTT     time.Duration
	pingTimeout time.Duration
	pingStamp   float32

	bandwidth    float32 // 对端回报的带宽，字节/秒
	bwTimeout    time.Duration
	bwStamp      float32
	bwProbeStart time.Time

	base     time.Time
	lastTick time.Time
}

func newConn(master bool, cfg config.TransportConfig, clk clock.Clock) *Conn {
	return &Conn{
		master:     master,
		traceID:    uuid.New().String(),
		cfg:        cfg,
		clk:        clk,
		state:      StateClosed,
		retx:       newRetxQueue(),
		reassembly: make(map[uint16][]byte),
		base:       clk.Now(),
	}
}

// now 返回连接本地的 float32 毫秒时间戳（控制包线上格式）
func (c *Conn) now() float32 {
	return float32(c.clk.Now().Sub(c.base).Seconds() * 1000)
}

// isn 取墙钟秒数低 16 位作为初始序列号
func (c *Conn) isn() uint16 {
	return uint16(c.clk.Now().Unix())
}

// ==================== 只读访问 ====================

// State 返回当前状态
func (c *Conn) State() State { return c.state }

// TraceID 返回日志用连接追踪 ID
func (c *Conn) TraceID() string { return c.traceID }

// RemoteAddress 返回对端地址
func (c *Conn) RemoteAddress() types.Address { return c.raddr }

// RTT 返回最近一次 PING/PONG 测得的往返时间
func (c *Conn) RTT() time.Duration { return c.pingRTT }

// Bandwidth 返回对端回报的带宽（字节/秒）
func (c *Conn) Bandwidth() float64 { return float64(c.bandwidth) }

// ==================== 生命周期 ====================

// Listen 让服务端主连接进入监听
func (c *Conn) Listen(s *Server) error {
	if !c.master {
		return ErrNotMaster
	}
	if c.state != StateClosed {
		return ErrBadState
	}

	c.sock = s.sock
	c.server = s
	c.state = StateListen
	c.lastTick = c.clk.Now()

	logger.Info("主连接进入监听", "trace", c.traceID)
	return nil
}

// Connect 让客户端主连接发起三次握手
func (c *Conn) Connect(raddr types.Address, cl *Client) error {
	if !c.master {
		return ErrNotMaster
	}
	if c.state != StateClosed {
		return ErrBadState
	}

	c.raddr = raddr
	c.sock = cl.sock
	c.client = cl

	isn := c.isn()
	packet := encodePacket(header{seqnum: isn, pflags: flagRLB | flagSYN}, nil)
	c.sock.Send(raddr, packet)
	c.retx.push(isn, c.cfg.RetxInterval.Duration(), c.cfg.RetxCount, packet)

	c.unreliableOut = isn
	c.reliableOut = isn + 1
	c.state = StateSynSent
	c.lastTick = c.clk.Now()

	logger.Info("发起握手", "trace", c.traceID, "raddr", raddr, "isn", isn)
	return nil
}

// Setup 挂接监听器并冲刷挂接前积压的可靠负载
func (c *Conn) Setup(l ConnListener) {
	c.listener = l

	for len(c.mailbox) > 0 {
		data := c.mailbox[0]
		c.mailbox = c.mailbox[1:]
		c.listener.OnIncomingData(data)
	}
}

// Close 本地主动关闭
//
// 监听态关闭所有子连接（各自发送 RST）；其余已激活状态先发 RST 再
// 本地复位。主动关闭不触发任何回调。
func (c *Conn) Close() {
	if c.state == StateClosed {
		return
	}

	if c.state == StateListen {
		for _, child := range c.children {
			child.Close()
		}
		c.children = nil
	} else {
		c.sendReset(c.raddr)
	}

	c.reset(false)
}

// Kick 强制关闭指定子连接
func (c *Conn) Kick(raddr types.Address) {
	if !c.master || c.state != StateListen {
		return
	}
	if child, ok := c.children[raddr]; ok {
		child.Close()
		delete(c.children, raddr)
		logger.Info("踢除子连接", "trace", c.traceID, "raddr", raddr)
	}
}

// Send 在已建立的连接上发送一段负载
func (c *Conn) Send(data []byte, reliable bool) {
	if c.state != StateEstablished {
		return
	}

	h := header{length: uint16(len(data))}
	if reliable {
		h.seqnum = c.reliableOut
		c.reliableOut++
		h.pflags = flagRLB
	} else {
		h.seqnum = c.unreliableOut
		c.unreliableOut++
	}

	packet := encodePacket(h, data)
	c.sock.Send(c.raddr, packet)

	if reliable {
		c.retx.push(h.seqnum, c.cfg.RetxInterval.Duration(), c.cfg.RetxCount, packet)
	}
}

// reset 复位连接
//
// broken=false 表示本地主动复位，不通知任何人；broken=true 表示被动
// 断裂：ESTABLISHED 状态通知删除/断裂事件，SYNSENT 状态通知连接失败。
// 未升级到用户层的服务端半成品连接静默消失。
func (c *Conn) reset(broken bool) {
	if broken {
		switch c.state {
		case StateEstablished:
			if c.server != nil {
				c.server.notifyDelete(c)
			}
			if c.client != nil {
				c.client.notifyBroken()
			}
		case StateSynSent:
			if c.client != nil {
				c.client.notifyConnectComplete(nil)
			}
		}
	}

	if c.state != StateClosed {
		logger.Debug("连接复位", "trace", c.traceID, "state", c.state.String(), "broken", broken)
	}

	c.server = nil
	c.client = nil
	c.sock = nil
	c.listener = nil
	c.mailbox = nil
	c.raddr = ""
	c.state = StateClosed
	c.unreliableOut = 0
	c.unreliableIn = 0
	c.retx.clear()
	c.reassembly = make(map[uint16][]byte)
	c.reliableOut = 0
	c.lowestAcceptable = 0
	c.latestLegalAck = 0
	c.dupAcks = 0
	c.pingRTT = 0
	c.pingTimeout = 0
	c.pingStamp = 0
	c.bandwidth = 0
	c.bwTimeout = 0
	c.bwStamp = 0
}

// ==================== 定时推进 ====================

// Tick 推进主连接：先按预算吸收入站数据报，再推进定时器
func (c *Conn) Tick() {
	if !c.master || c.state == StateClosed {
		return
	}

	for n := 0; n < c.cfg.MaxPacketsPerCycle; n++ {
		raddr, packet, ok := c.sock.Recv()
		if !ok {
			break
		}
		if len(packet) < HeaderSize {
			continue // 包头不完整
		}
		h := parseHeader(packet)
		if HeaderSize+int(h.length) != len(packet) {
			continue // 长度与实际不符
		}
		c.dispatch(raddr, packet)
		if c.state == StateClosed {
			return // 处理入站包可能导致连接关闭
		}
	}

	now := c.clk.Now()
	elapsed := now.Sub(c.lastTick)
	c.lastTick = now

	if c.state == StateListen {
		for raddr, child := range c.children {
			child.checkTimeout(elapsed)
			if child.state == StateClosed {
				delete(c.children, raddr)
			}
		}
	} else {
		c.checkTimeout(elapsed)
	}
}

// checkTimeout 推进重传与探测定时器
func (c *Conn) checkTimeout(elapsed time.Duration) {
	alive := c.retx.advance(elapsed, c.cfg.RetxInterval.Duration(), func(packet []byte) {
		c.sock.Send(c.raddr, packet)
	})
	if !alive {
		logger.Warn("重传次数耗尽，连接断裂", "trace", c.traceID, "raddr", c.raddr)
		c.reset(true)
		return
	}

	if c.state != StateEstablished {
		return
	}

	if c.pingTimeout <= elapsed {
		c.pingStamp = c.now()
		c.sendPing(c.raddr, c.pingStamp)
		c.pingTimeout = c.cfg.PingInterval.Duration()
	} else {
		c.pingTimeout -= elapsed
	}

	if c.bwTimeout <= elapsed {
		c.sendBWPoll(c.raddr, c.now())
		c.bwTimeout = c.cfg.BandwidthInterval.Duration()
	} else {
		c.bwTimeout -= elapsed
	}
}

// ==================== 控制包发送 ====================

func (c *Conn) sendReset(raddr types.Address) {
	c.sock.Send(raddr, encodePacket(header{pflags: flagRST}, nil))
}

func (c *Conn) sendAck(raddr types.Address, acknum uint16) {
	c.sock.Send(raddr, encodePacket(header{acknum: acknum, pflags: flagACK}, nil))
}

func (c *Conn) sendPing(raddr types.Address, timestamp float32) {
	p := encodePacket(header{pflags: flagPIN}, nil)
	putTimestamp(p, timestamp)
	c.sock.Send(raddr, p)
}

func (c *Conn) sendPong(raddr types.Address, timestamp float32) {
	p := encodePacket(header{pflags: flagPON}, nil)
	putTimestamp(p, timestamp)
	c.sock.Send(raddr, p)
}

// sendBWPoll 连发两个同时间戳的探测包，接收端测量到达间隔
func (c *Conn) sendBWPoll(raddr types.Address, timestamp float32) {
	body := make([]byte, c.cfg.BandwidthProbeSize-HeaderSize)
	p := encodePacket(header{pflags: flagBWP | bwSubFirst, length: uint16(len(body))}, body)
	putTimestamp(p, timestamp)
	c.sock.Send(raddr, p)

	p2 := encodePacket(header{pflags: flagBWP | bwSubSecond, length: uint16(len(body))}, body)
	putTimestamp(p2, timestamp)
	c.sock.Send(raddr, p2)
}

func (c *Conn) sendBWResult(raddr types.Address, bandwidth float32) {
	p := encodePacket(header{pflags: flagBWR}, nil)
	putTimestamp(p, bandwidth)
	c.sock.Send(raddr, p)
}

// ==================== 状态机 ====================

func (c *Conn) dispatch(raddr types.Address, packet []byte) {
	switch c.state {
	case StateClosed:
		c.stateClosed(raddr, packet)
	case StateListen:
		c.stateListen(raddr, packet)
	case StateSynSent:
		c.stateSynSent(raddr, packet)
	case StateSynRcvd:
		c.stateSynRcvd(raddr, packet)
	case StateEstablished:
		c.stateEstablished(raddr, packet)
	}
}

func (c *Conn) stateClosed(raddr types.Address, packet []byte) {
	h := parseHeader(packet)
	if h.flags()&flagRST == 0 {
		c.sendReset(raddr)
	}
}

// stateListen 监听态：已知对端转发给子连接，未知对端只接受纯 RLB|SYN
func (c *Conn) stateListen(raddr types.Address, packet []byte) {
	if !c.master {
		return
	}

	if child, ok := c.children[raddr]; ok {
		child.dispatch(raddr, packet)
		if child.state == StateClosed {
			delete(c.children, raddr)
		}
		return
	}

	h := parseHeader(packet)
	if h.flags() != flagRLB|flagSYN {
		if h.flags()&flagRST == 0 {
			c.sendReset(raddr)
		}
		return
	}

	child := newConn(false, c.cfg, c.clk)
	child.server = c.server
	child.sock = c.sock
	child.raddr = raddr
	child.unreliableIn = h.seqnum
	child.lowestAcceptable = h.seqnum + 1

	isn := child.isn()
	reply := encodePacket(header{
		seqnum: isn,
		acknum: h.seqnum + 1,
		pflags: flagRLB | flagSYN | flagACK,
	}, nil)
	c.sock.Send(raddr, reply)
	child.retx.push(isn, c.cfg.RetxInterval.Duration(), c.cfg.RetxCount, reply)

	child.unreliableOut = isn
	child.reliableOut = isn + 1
	child.state = StateSynRcvd

	if c.children == nil {
		c.children = make(map[types.Address]*Conn)
	}
	c.children[raddr] = child

	logger.Debug("收到 SYN，孵化子连接", "trace", child.traceID, "raddr", raddr, "isn", isn)
}

// stateSynSent 客户端等待 RLB|SYN|ACK
func (c *Conn) stateSynSent(raddr types.Address, packet []byte) {
	if !c.master || c.client == nil {
		return
	}

	h := parseHeader(packet)

	fail := false
	switch {
	case h.flags()&flagRST != 0:
		fail = true
	case c.raddr != raddr:
		c.sendReset(raddr)
		fail = true
	case h.flags() != flagRLB|flagSYN|flagACK:
		c.sendReset(raddr)
		fail = true
	case !seqEQ(h.acknum, c.reliableOut):
		c.sendReset(raddr)
		fail = true
	}
	if fail {
		logger.Warn("握手失败", "trace", c.traceID, "raddr", raddr, "flags", h.flags())
		c.client.notifyConnectComplete(nil)
		c.reset(false)
		return
	}

	c.latestLegalAck = h.acknum
	c.retx.eraseBelow(c.reliableOut)

	c.unreliableIn = h.seqnum
	c.lowestAcceptable = h.seqnum + 1
	c.sendAck(raddr, c.lowestAcceptable)

	c.state = StateEstablished
	logger.Info("握手完成", "trace", c.traceID, "raddr", raddr)

	c.client.notifyConnectComplete(c)
}

// stateSynRcvd 服务端子连接等待第三次握手的纯 ACK
func (c *Conn) stateSynRcvd(raddr types.Address, packet []byte) {
	h := parseHeader(packet)

	if h.flags()&flagRST != 0 {
		c.reset(true)
		return
	}

	if h.flags() != flagACK {
		return // 可能是早到的数据包，静默丢弃
	}

	if !seqEQ(h.acknum, c.reliableOut) {
		c.sendReset(raddr)
		c.reset(true)
		return
	}

	c.latestLegalAck = h.acknum
	c.retx.eraseBelow(c.reliableOut)

	c.state = StateEstablished
	logger.Info("子连接已建立", "trace", c.traceID, "raddr", c.raddr)

	if c.server != nil {
		c.server.notifyCreate(c)
	}
}

// stateEstablished 已建立态：控制包、确认处理与数据收取
func (c *Conn) stateEstablished(raddr types.Address, packet []byte) {
	if c.master && c.raddr != raddr {
		// 客户端主连接收到非绑定对端的包
		c.sendReset(raddr)
		return
	}

	h := parseHeader(packet)

	if h.flags()&flagRST != 0 {
		logger.Info("收到对端 RST", "trace", c.traceID, "raddr", c.raddr)
		c.reset(true)
		return
	}

	if h.flags()&flagPIN != 0 {
		c.sendPong(raddr, timestampOf(packet))
		return
	}

	if h.flags()&flagPON != 0 {
		if stamp := timestampOf(packet); stamp == c.pingStamp {
			c.pingRTT = time.Duration((c.now() - stamp) * float32(time.Millisecond))
		}
		return
	}

	if h.flags()&flagBWP != 0 {
		switch h.bwSub() {
		case bwSubFirst:
			c.bwStamp = timestampOf(packet)
			c.bwProbeStart = c.clk.Now()
		case bwSubSecond:
			if c.bwStamp == timestampOf(packet) {
				if elapsed := c.clk.Now().Sub(c.bwProbeStart).Seconds(); elapsed > 0 {
					bw := float32(float64(c.cfg.BandwidthProbeSize) / elapsed)
					c.sendBWResult(raddr, bw)
				}
			}
		}
		return
	}

	if h.flags()&flagBWR != 0 {
		c.bandwidth = timestampOf(packet)
		return
	}

	if h.flags()&flagACK != 0 {
		if h.length > 0 {
			return // 不支持携带负载的 ACK，预留
		}

		if seqGT(h.acknum, c.reliableOut) {
			// 确认了从未发出的序列号
			logger.Warn("收到超前 ACK，重置连接", "trace", c.traceID, "ack", h.acknum)
			c.sendReset(raddr)
			c.reset(true)
			return
		}

		// 快速重传：第 3 个重复 ACK 立即重发最老未确认包
		if seqEQ(h.acknum, c.latestLegalAck) && !c.retx.empty() {
			c.dupAcks++
			if c.dupAcks >= 3 {
				if oldest := c.retx.oldestPacket(); oldest != nil {
					c.sock.Send(raddr, oldest)
				}
				c.dupAcks = 0
				return
			}
		}

		// 累计确认：ack 比接收端实收大 1
		if c.retx.hasBelow(h.acknum) {
			c.latestLegalAck = h.acknum
			c.dupAcks = 0
		}
		c.retx.eraseBelow(h.acknum)
	}

	if h.length == 0 {
		return
	}

	if h.flags()&flagRLB != 0 {
		c.recvReliable(raddr, h, packet)
	} else {
		c.recvUnreliable(h, packet)
	}
}

// recvReliable 可靠接收：乱序缓存进重组表，从最低可接受序列号起连续冲刷
func (c *Conn) recvReliable(raddr types.Address, h header, packet []byte) {
	if seqGE(h.seqnum, c.lowestAcceptable) {
		c.reassembly[h.seqnum] = packet

		current := c.lowestAcceptable
		for {
			buffered, ok := c.reassembly[current]
			if !ok {
				break
			}
			delete(c.reassembly, current)

			bh := parseHeader(buffered)
			data := make([]byte, bh.length)
			copy(data, buffered[HeaderSize:])
			c.deliver(data)

			current++
		}
		c.lowestAcceptable = current
	}

	// 过期的可靠包也要回 ACK，让对端看到最新的累计确认
	c.sendAck(raddr, c.lowestAcceptable)
}

// recvUnreliable 不可靠接收：丢弃晚到与重复，立即送达
func (c *Conn) recvUnreliable(h header, packet []byte) {
	if seqLT(h.seqnum, c.unreliableIn) {
		return
	}
	c.unreliableIn = h.seqnum + 1

	data := make([]byte, h.length)
	copy(data, packet[HeaderSize:])

	if c.listener != nil {
		c.listener.OnIncomingData(data)
	}
}

// deliver 送达可靠负载；监听器未挂接时入信箱
func (c *Conn) deliver(data []byte) {
	if c.listener != nil {
		c.listener.OnIncomingData(data)
	} else {
		c.mailbox = append(c.mailbox, data)
	}
}
