// Package netran 是 go-netran 的用户入口
//
// go-netran 在 UDP 之上提供一个小型分布式对象网络栈，由三个紧耦合的
// 子系统组成：
//
//   - Netran 传输层：面向连接的可靠/不可靠数据报协议，包含三次握手、
//     超时重传、快速重传、RTT 探测与带宽探测（internal/core/transport）。
//   - 位流编解码：长度前缀、位打包、变长整数的序列化器，字符串、
//     浮点、容器、变体与结构化元数据均由策略驱动（pkg/bitstream、
//     pkg/serialize）。
//   - 分布式对象系统：按数值 ID 寻址的对象注册表，经传输层分发远程
//     方法调用，支持 集合/集合取反 扇出与每连接的对象生成追踪
//     （pkg/dos）。
//
// 整个栈单线程协作式推进：应用以 ~1ms 周期调用各端点的 Tick，所有
// 回调都在 Tick 的调用栈上触发，全程不需要锁。
//
// 最小示例（回显服务端）：
//
//	srv := netran.NewServer()
//	srv.Setup(listener)
//	if err := srv.Host("127.0.0.1:8888"); err != nil {
//	    ...
//	}
//	for {
//	    srv.Tick()
//	    time.Sleep(time.Millisecond)
//	}
package netran
