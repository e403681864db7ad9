package transport

import "time"

// retxEntry 单个待确认可靠包
type retxEntry struct {
	timeout time.Duration
	count   int
	packet  []byte
}

// retxQueue 重传队列
//
// 键构成以 oldest 起始的连续序列号区间 [oldest, oldest+len) mod 2^16，
// 因此累计确认只需从 oldest 逐个删除。队列按时间不排序：确认到达时
// 的快速删除比超时扫描的顺序更重要，而队列通常很小。
type retxQueue struct {
	entries map[uint16]*retxEntry
	oldest  uint16
}

func newRetxQueue() retxQueue {
	return retxQueue{entries: make(map[uint16]*retxEntry)}
}

func (q *retxQueue) empty() bool {
	return len(q.entries) == 0
}

func (q *retxQueue) size() int {
	return len(q.entries)
}

// push 入队一个刚发出的可靠包
func (q *retxQueue) push(seq uint16, timeout time.Duration, count int, packet []byte) {
	if q.empty() {
		q.oldest = seq
	}
	q.entries[seq] = &retxEntry{timeout: timeout, count: count, packet: packet}
}

// oldestPacket 返回最老的未确认包（快速重传用）
func (q *retxQueue) oldestPacket() []byte {
	if e, ok := q.entries[q.oldest]; ok {
		return e.packet
	}
	return nil
}

// hasBelow 报告是否存在严格小于 ack 的未确认序列号
func (q *retxQueue) hasBelow(ack uint16) bool {
	return !q.empty() && seqLT(q.oldest, ack)
}

// eraseBelow 删除严格小于 ack 的所有条目（累计确认）
func (q *retxQueue) eraseBelow(ack uint16) {
	for !q.empty() && seqLT(q.oldest, ack) {
		delete(q.entries, q.oldest)
		q.oldest++
	}
}

// clear 清空队列
func (q *retxQueue) clear() {
	q.entries = make(map[uint16]*retxEntry)
	q.oldest = 0
}

// advance 推进所有条目的计时
//
// 到期条目由 resend 回调重发并重置计时；某个条目的重传次数在到期前
// 已经耗尽时返回 false，表示连接应按断裂处理。
func (q *retxQueue) advance(elapsed, interval time.Duration, resend func(packet []byte)) bool {
	for _, e := range q.entries {
		if e.timeout <= elapsed {
			if e.count == 0 {
				return false
			}
			resend(e.packet)
			e.timeout = interval
			e.count--
		} else {
			e.timeout -= elapsed
		}
	}
	return true
}
