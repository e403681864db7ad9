// netran-demo 回显服务的命令行入口
//
// 用法：
//
//	netran-demo -listen 0.0.0.0:8888            # 回显服务端
//	netran-demo -connect 127.0.0.1:8888 -msg hi # 客户端发一条消息并等回显
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	netran "github.com/netran/go-netran"
	"github.com/netran/go-netran/config"
	"github.com/netran/go-netran/pkg/lib/log"
)

var (
	listenAddr  = flag.String("listen", "", "以回显服务端启动，监听该地址")
	connectAddr = flag.String("connect", "", "以客户端启动，连接该地址")
	message     = flag.String("msg", "hello netran", "客户端发送的消息")
	configPath  = flag.String("config", "", "可选的 YAML 配置文件")
	verbose     = flag.Bool("v", false, "输出 Debug 日志")
)

func main() {
	flag.Parse()

	if *verbose {
		log.SetLevel(slog.LevelDebug)
	}

	cfg := config.NewConfig()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "config:", err)
			os.Exit(1)
		}
		cfg = loaded
		cfg.ApplyMetadata()
	}

	switch {
	case *listenAddr != "":
		runServer(cfg, *listenAddr)
	case *connectAddr != "":
		runClient(cfg, *connectAddr, *message)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

type echoListener struct{}

func (echoListener) OnCreateConnection(c *netran.Conn) {
	fmt.Println("connection from", c.RemoteAddress())
	c.Setup(&echoBack{conn: c})
}

func (echoListener) OnDeleteConnection(c *netran.Conn) {
	fmt.Println("connection lost", c.RemoteAddress())
}

type echoBack struct {
	conn *netran.Conn
}

func (e *echoBack) OnIncomingData(data []byte) {
	e.conn.Send(data, true)
}

func runServer(cfg *config.Config, addr string) {
	srv := netran.NewServer(netran.WithConfig(cfg.Transport))
	srv.Setup(echoListener{})
	if err := srv.Host(netran.Address(addr)); err != nil {
		fmt.Fprintln(os.Stderr, "host:", err)
		os.Exit(1)
	}
	defer srv.Shutdown()
	fmt.Println("echo server on", addr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	for {
		select {
		case <-stop:
			return
		default:
			srv.Tick()
			time.Sleep(time.Millisecond)
		}
	}
}

type clientListener struct {
	conn *netran.Conn
	done bool
}

func (l *clientListener) OnConnectComplete(c *netran.Conn) {
	if c == nil {
		fmt.Fprintln(os.Stderr, "connect failed")
		os.Exit(1)
	}
	l.conn = c
	c.Setup(l)
}

func (l *clientListener) OnConnectionBroken() {
	fmt.Fprintln(os.Stderr, "connection broken")
	os.Exit(1)
}

func (l *clientListener) OnIncomingData(data []byte) {
	fmt.Printf("echo: %q (rtt=%v, bw=%.0f B/s)\n", data, l.conn.RTT(), l.conn.Bandwidth())
	l.done = true
}

func runClient(cfg *config.Config, addr, msg string) {
	cli := netran.NewClient(netran.WithConfig(cfg.Transport))
	listener := &clientListener{}
	cli.Setup(listener)
	if err := cli.Connect(netran.Address(addr)); err != nil {
		fmt.Fprintln(os.Stderr, "connect:", err)
		os.Exit(1)
	}
	defer cli.Shutdown()

	sent := false
	for i := 0; i < 10000 && !listener.done; i++ {
		cli.Tick()
		if listener.conn != nil && !sent {
			listener.conn.Send([]byte(msg), true)
			sent = true
		}
		time.Sleep(time.Millisecond)
	}
	if !listener.done {
		fmt.Fprintln(os.Stderr, "no echo within deadline")
		os.Exit(1)
	}
}
