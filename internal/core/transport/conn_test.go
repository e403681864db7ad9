package transport

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netran/go-netran/pkg/types"
)

const srvAddr = types.Address("127.0.0.1:8888")

type recListener struct {
	payloads [][]byte
}

func (l *recListener) OnIncomingData(data []byte) {
	l.payloads = append(l.payloads, data)
}

type srvEvents struct {
	created []*Conn
	deleted []*Conn
	sink    *recListener // 非 nil 时在连接建立处挂接
}

func (e *srvEvents) OnCreateConnection(c *Conn) {
	e.created = append(e.created, c)
	if e.sink != nil {
		c.Setup(e.sink)
	}
}

func (e *srvEvents) OnDeleteConnection(c *Conn) {
	e.deleted = append(e.deleted, c)
}

type cliEvents struct {
	completed []*Conn // 失败时追加 nil
	broken    int
}

func (e *cliEvents) OnConnectComplete(c *Conn) {
	e.completed = append(e.completed, c)
}

func (e *cliEvents) OnConnectionBroken() {
	e.broken++
}

type pairHarness struct {
	mock *clock.Mock
	net  *memNet

	srv    *Server
	srvEv  *srvEvents
	srvSck *memSocket

	cli    *Client
	cliEv  *cliEvents
	cliSck *memSocket
}

func newPair(t *testing.T) *pairHarness {
	t.Helper()

	h := &pairHarness{
		mock:  clock.NewMock(),
		net:   newMemNet(),
		srvEv: &srvEvents{},
		cliEv: &cliEvents{},
	}
	h.srvSck = h.net.socket(srvAddr)
	h.cliSck = h.net.socket("")

	h.srv = NewServer(WithSocket(h.srvSck), WithClock(h.mock))
	h.srv.Setup(h.srvEv)
	require.NoError(t, h.srv.Host(srvAddr))

	h.cli = NewClient(WithSocket(h.cliSck), WithClock(h.mock))
	h.cli.Setup(h.cliEv)
	return h
}

func (h *pairHarness) pump(rounds int) {
	for i := 0; i < rounds; i++ {
		h.cli.Tick()
		h.srv.Tick()
	}
}

// connect 完成握手并返回两侧连接
func (h *pairHarness) connect(t *testing.T) (cliConn, srvConn *Conn) {
	t.Helper()
	require.NoError(t, h.cli.Connect(srvAddr))
	h.pump(2)
	require.Len(t, h.cliEv.completed, 1)
	require.NotNil(t, h.cliEv.completed[0])
	require.Len(t, h.srvEv.created, 1)
	return h.cliEv.completed[0], h.srvEv.created[0]
}

// TestHandshake 三次握手在两轮 Tick 内完成
func TestHandshake(t *testing.T) {
	h := newPair(t)
	cliConn, srvConn := h.connect(t)

	assert.Equal(t, StateEstablished, cliConn.State())
	assert.Equal(t, StateEstablished, srvConn.State())
	assert.Equal(t, srvAddr, cliConn.RemoteAddress())
	assert.Equal(t, h.cliSck.LocalAddr(), srvConn.RemoteAddress())
	assert.NotEmpty(t, cliConn.TraceID())
}

// TestReliableEcho 可靠回显：字节原样往返
func TestReliableEcho(t *testing.T) {
	h := newPair(t)
	h.srvEv.sink = &recListener{}
	cliConn, srvConn := h.connect(t)

	cliSink := &recListener{}
	cliConn.Setup(cliSink)

	payload := []byte("hello world\x00")
	cliConn.Send(payload, true)
	h.pump(1)

	require.Len(t, h.srvEv.sink.payloads, 1)
	assert.Equal(t, payload, h.srvEv.sink.payloads[0])

	// 回显
	srvConn.Send(h.srvEv.sink.payloads[0], true)
	h.pump(1)

	require.Len(t, cliSink.payloads, 1)
	assert.Equal(t, payload, cliSink.payloads[0])
}

// TestDeferredListener 监听器晚挂接：负载先进信箱，Setup 时按序冲刷
func TestDeferredListener(t *testing.T) {
	h := newPair(t)
	cliConn, srvConn := h.connect(t)

	first := []byte("first")
	second := []byte("second")
	cliConn.Send(first, true)
	cliConn.Send(second, true)
	h.pump(1)

	// 尚未挂接监听器
	sink := &recListener{}
	srvConn.Setup(sink)

	require.Len(t, sink.payloads, 2)
	assert.Equal(t, first, sink.payloads[0])
	assert.Equal(t, second, sink.payloads[1])
}

// TestLossAndRetransmit 前两个数据包丢失后仍恰好一次按序送达
func TestLossAndRetransmit(t *testing.T) {
	h := newPair(t)
	h.srvEv.sink = &recListener{}
	cliConn, _ := h.connect(t)

	dropped := 0
	h.cliSck.drop = func(_ types.Address, data []byte) bool {
		if isDataPacket(data) && dropped < 2 {
			dropped++
			return true
		}
		return false
	}

	payload := []byte("lossy payload")
	cliConn.Send(payload, true) // 第一次发送被丢弃
	h.pump(1)
	assert.Empty(t, h.srvEv.sink.payloads)

	// 第一次超时重传仍被丢弃
	h.mock.Add(500 * time.Millisecond)
	h.pump(1)
	assert.Empty(t, h.srvEv.sink.payloads)
	assert.Equal(t, 2, dropped)

	// 第二次超时重传通过
	h.mock.Add(500 * time.Millisecond)
	h.pump(2)

	require.Len(t, h.srvEv.sink.payloads, 1)
	assert.Equal(t, payload, h.srvEv.sink.payloads[0])

	// 确认回来后重传队列清空
	assert.True(t, cliConn.retx.empty())
}

// TestFastRetransmit 第 3 个重复 ACK 触发立即重传（不等超时）
func TestFastRetransmit(t *testing.T) {
	h := newPair(t)
	h.srvEv.sink = &recListener{}
	cliConn, _ := h.connect(t)

	dropped := 0
	h.cliSck.drop = func(_ types.Address, data []byte) bool {
		if isDataPacket(data) && dropped == 0 {
			dropped++
			return true // 只丢第一个数据包
		}
		return false
	}

	payloads := [][]byte{[]byte("p0"), []byte("p1"), []byte("p2"), []byte("p3")}
	for _, p := range payloads {
		cliConn.Send(p, true)
	}

	// 服务端收到 p1..p3，回 3 个重复 ACK；客户端在第 3 个上立即重发 p0。
	// 全程不推时钟：只有快速重传能补上缺口。
	h.pump(3)

	require.Len(t, h.srvEv.sink.payloads, 4)
	for i, want := range payloads {
		assert.Equal(t, want, h.srvEv.sink.payloads[i])
	}
	assert.True(t, cliConn.retx.empty())
}

// TestUnreliableOrdering 不可靠路径丢弃晚到与重复
func TestUnreliableOrdering(t *testing.T) {
	h := newPair(t)
	cliConn, _ := h.connect(t)

	sink := &recListener{}
	cliConn.Setup(sink)

	base := cliConn.unreliableIn
	mk := func(seq uint16, body string) []byte {
		return encodePacket(header{seqnum: seq, length: uint16(len(body))}, []byte(body))
	}

	h.net.inject(h.cliSck.LocalAddr(), srvAddr, mk(base+5, "A"))
	h.net.inject(h.cliSck.LocalAddr(), srvAddr, mk(base+3, "B")) // 晚到，丢弃
	h.net.inject(h.cliSck.LocalAddr(), srvAddr, mk(base+5, "C")) // 重复序列，丢弃
	h.net.inject(h.cliSck.LocalAddr(), srvAddr, mk(base+6, "D"))
	h.cli.Tick()

	require.Len(t, sink.payloads, 2)
	assert.Equal(t, []byte("A"), sink.payloads[0])
	assert.Equal(t, []byte("D"), sink.payloads[1])
	assert.Equal(t, base+7, cliConn.unreliableIn)
}

// TestAckBeyondSent 超前 ACK 视为恶意，RST 并按断裂复位
func TestAckBeyondSent(t *testing.T) {
	h := newPair(t)
	cliConn, _ := h.connect(t)

	bogus := encodePacket(header{acknum: cliConn.reliableOut + 1, pflags: flagACK}, nil)
	h.net.inject(h.cliSck.LocalAddr(), srvAddr, bogus)
	h.cli.Tick()

	assert.Equal(t, StateClosed, cliConn.State())
	assert.Equal(t, 1, h.cliEv.broken)
}

// TestKick 服务端踢人：客户端收到 RST 后报告断裂
func TestKick(t *testing.T) {
	h := newPair(t)
	cliConn, _ := h.connect(t)

	h.srv.Kick(h.cliSck.LocalAddr())
	h.cli.Tick()

	assert.Equal(t, StateClosed, cliConn.State())
	assert.Equal(t, 1, h.cliEv.broken)
	// 本地主动关闭不触发服务端回调
	assert.Empty(t, h.srvEv.deleted)
}

// TestClientDisconnect 客户端断开：服务端子连接断裂回调
func TestClientDisconnect(t *testing.T) {
	h := newPair(t)
	_, srvConn := h.connect(t)

	h.cli.Disconnect()
	h.srv.Tick()

	assert.Equal(t, StateClosed, srvConn.State())
	require.Len(t, h.srvEv.deleted, 1)
	assert.Same(t, srvConn, h.srvEv.deleted[0])
}

// TestHandshakeRejected SYNSENT 收到 RST：连接失败通知
func TestHandshakeRejected(t *testing.T) {
	h := newPair(t)
	require.NoError(t, h.cli.Connect("127.0.0.1:9999"))

	h.net.inject(h.cliSck.LocalAddr(), "127.0.0.1:9999",
		encodePacket(header{pflags: flagRST}, nil))
	h.cli.Tick()

	require.Len(t, h.cliEv.completed, 1)
	assert.Nil(t, h.cliEv.completed[0])
}

// TestListenRejectsStrangers 监听态只接受纯 RLB|SYN，其余回 RST
func TestListenRejectsStrangers(t *testing.T) {
	h := newPair(t)

	stranger := types.Address("10.0.0.9:1234")
	junk := encodePacket(header{seqnum: 1, length: 4}, []byte("junk"))
	h.net.inject(srvAddr, stranger, junk)
	h.srv.Tick()

	q := h.net.queues[stranger]
	require.Len(t, q, 1)
	reply := parseHeader(q[0].data)
	assert.Equal(t, flagRST, reply.flags())
}

// TestEstablishedWrongSource 客户端主连接拒绝非绑定对端
func TestEstablishedWrongSource(t *testing.T) {
	h := newPair(t)
	cliConn, _ := h.connect(t)

	stranger := types.Address("10.0.0.7:7777")
	h.net.inject(h.cliSck.LocalAddr(), stranger,
		encodePacket(header{seqnum: 9, length: 2}, []byte("xx")))
	h.cli.Tick()

	// 连接不受影响，陌生来源收到 RST
	assert.Equal(t, StateEstablished, cliConn.State())
	q := h.net.queues[stranger]
	require.Len(t, q, 1)
	assert.Equal(t, flagRST, parseHeader(q[0].data).flags())
}

// TestPerTickBudget 单次 Tick 最多吸收 256 个数据报
func TestPerTickBudget(t *testing.T) {
	h := newPair(t)

	for i := 0; i < 300; i++ {
		h.net.inject(srvAddr, "10.0.0.1:1", []byte{0x00}) // 包头不完整，消耗预算后丢弃
	}
	h.srv.Tick()

	assert.Len(t, h.net.queues[srvAddr], 300-256)
}

// TestPingRTT PING/PONG 更新 RTT
func TestPingRTT(t *testing.T) {
	h := newPair(t)
	cliConn, _ := h.connect(t)

	// 握手期间 PING 已发出，服务端在同一轮就回了 PONG；客户端 30ms 后才读取它
	h.mock.Add(30 * time.Millisecond)
	h.srv.Tick() // 服务端没有待收的 PING
	h.cli.Tick() // 客户端收 PONG，RTT 按读取时刻计为 30ms

	assert.InDelta(t, float64(30*time.Millisecond), float64(cliConn.RTT()), float64(2*time.Millisecond))
}

// TestBandwidthProbe 接收端按两个探测包的到达间隔计算并回报带宽
func TestBandwidthProbe(t *testing.T) {
	h := newPair(t)
	cliConn, srvConn := h.connect(t)
	_ = cliConn

	body := make([]byte, 512-HeaderSize)
	mkProbe := func(sub uint16, stamp float32) []byte {
		p := encodePacket(header{pflags: flagBWP | sub, length: uint16(len(body))}, body)
		putTimestamp(p, stamp)
		return p
	}

	// 两个探测包相隔 100ms 到达客户端 → 512 / 0.1s = 5120 B/s
	h.net.inject(h.cliSck.LocalAddr(), srvAddr, mkProbe(bwSubFirst, 42))
	h.cli.Tick()
	h.mock.Add(100 * time.Millisecond)
	h.net.inject(h.cliSck.LocalAddr(), srvAddr, mkProbe(bwSubSecond, 42))
	h.cli.Tick()

	h.srv.Tick() // 服务端子连接收到 BWR
	assert.InDelta(t, 5120.0, srvConn.Bandwidth(), 1.0)
}
