// Copyright 2025 The respd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/respd/respd/client"
	"github.com/respd/respd/common"
	"github.com/respd/respd/storage"
)

// startServer 在随机端口上拉起一个服务实例
func startServer(t *testing.T, maxConns int) (string, func()) {
	t.Helper()

	h := storage.NewHolder(common.NewOptions())
	s, err := New(Config{Port: 0, MaxConnections: maxConns}, h.Store())
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Serve(ctx)
		close(done)
	}()

	return s.Addr().String(), func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("server did not drain in time")
		}
		h.Close()
	}
}

func dialRaw(t *testing.T, addr string) net.Conn {
	t.Helper()

	sock, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("failed to dial %s: %v", addr, err)
	}
	return sock
}

func readExact(t *testing.T, sock net.Conn, n int) []byte {
	t.Helper()

	sock.SetReadDeadline(time.Now().Add(2 * time.Second))
	b := make([]byte, n)
	if _, err := io.ReadFull(sock, b); err != nil {
		t.Fatalf("failed to read %d bytes: %v", n, err)
	}
	return b
}

func TestPingWithoutMessage(t *testing.T) {
	addr, stop := startServer(t, 16)
	defer stop()

	sock := dialRaw(t, addr)
	defer sock.Close()

	sock.Write([]byte("*1\r\n$4\r\nping\r\n"))
	assert.Equal(t, "+PONG\r\n", string(readExact(t, sock, 7)))
}

func TestPingWithMessage(t *testing.T) {
	addr, stop := startServer(t, 16)
	defer stop()

	sock := dialRaw(t, addr)
	defer sock.Close()

	sock.Write([]byte("*2\r\n$4\r\nping\r\n$12\r\n你好世界\r\n"))
	assert.Equal(t, "$12\r\n你好世界\r\n", string(readExact(t, sock, 19)))
}

func TestGetSetRoundTrip(t *testing.T) {
	addr, stop := startServer(t, 16)
	defer stop()

	c, err := client.Connect(addr)
	assert.NoError(t, err)
	defer c.Close()

	value, err := c.Get("foo")
	assert.NoError(t, err)
	assert.Nil(t, value)

	assert.NoError(t, c.Set("foo", []byte("bar")))

	value, err = c.Get("foo")
	assert.NoError(t, err)
	assert.Equal(t, []byte("bar"), value)
}

func TestTTLExpiry(t *testing.T) {
	addr, stop := startServer(t, 16)
	defer stop()

	c, err := client.Connect(addr)
	assert.NoError(t, err)
	defer c.Close()

	assert.NoError(t, c.SetExpires("foo", []byte("bar"), 50*time.Millisecond))

	time.Sleep(200 * time.Millisecond)

	value, err := c.Get("foo")
	assert.NoError(t, err)
	assert.Nil(t, value)
}

func TestPubSubMultiChannel(t *testing.T) {
	addr, stop := startServer(t, 16)
	defer stop()

	sc, err := client.Connect(addr)
	assert.NoError(t, err)
	sub, err := sc.Subscribe("hello", "world")
	assert.NoError(t, err)
	defer sub.Close()

	pc, err := client.Connect(addr)
	assert.NoError(t, err)
	defer pc.Close()

	n, err := pc.Publish("hello", []byte("world"))
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	msg, err := sub.NextMessage()
	assert.NoError(t, err)
	assert.Equal(t, "hello", msg.Channel)
	assert.Equal(t, []byte("world"), msg.Content)

	n, err = pc.Publish("world", []byte("howdy?"))
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	msg, err = sub.NextMessage()
	assert.NoError(t, err)
	assert.Equal(t, "world", msg.Channel)
	assert.Equal(t, []byte("howdy?"), msg.Content)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	addr, stop := startServer(t, 16)
	defer stop()

	c, err := client.Connect(addr)
	assert.NoError(t, err)
	defer c.Close()

	n, err := c.Publish("ghost", []byte("anyone"))
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), n)
}

func TestUnsubscribeAll(t *testing.T) {
	addr, stop := startServer(t, 16)
	defer stop()

	c, err := client.Connect(addr)
	assert.NoError(t, err)
	sub, err := c.Subscribe("hello", "world")
	assert.NoError(t, err)
	defer sub.Close()

	assert.NoError(t, sub.Unsubscribe())
	assert.Empty(t, sub.Channels())
}

func TestUnknownCommandKeepsConnection(t *testing.T) {
	addr, stop := startServer(t, 16)
	defer stop()

	sock := dialRaw(t, addr)
	defer sock.Close()

	sock.Write([]byte("*1\r\n$8\r\nFLUSHALL\r\n"))
	want := "-ERR unknown command 'FLUSHALL'\r\n"
	assert.Equal(t, want, string(readExact(t, sock, len(want))))

	// 语义错误不影响连接 后续命令照常执行
	sock.Write([]byte("*1\r\n$4\r\nping\r\n"))
	assert.Equal(t, "+PONG\r\n", string(readExact(t, sock, 7)))
}

func TestMalformedInputClosesConnection(t *testing.T) {
	addr, stop := startServer(t, 16)
	defer stop()

	sock := dialRaw(t, addr)
	defer sock.Close()

	sock.Write([]byte("?bogus\r\n"))

	sock.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := sock.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestUnknownInSubscribeModeKeepsConnection(t *testing.T) {
	addr, stop := startServer(t, 16)
	defer stop()

	sock := dialRaw(t, addr)
	defer sock.Close()

	sock.Write([]byte("*2\r\n$9\r\nsubscribe\r\n$5\r\nhello\r\n"))
	ack := "*3\r\n$9\r\nsubscribe\r\n$5\r\nhello\r\n:1\r\n"
	assert.Equal(t, ack, string(readExact(t, sock, len(ack))))

	// 订阅模式下普通命令回复错误帧 但连接保持
	sock.Write([]byte("*2\r\n$3\r\nget\r\n$3\r\nfoo\r\n"))
	want := "-ERR unknown command 'get'\r\n"
	assert.Equal(t, want, string(readExact(t, sock, len(want))))

	sock.Write([]byte("*1\r\n$4\r\nping\r\n"))
	assert.Equal(t, "+PONG\r\n", string(readExact(t, sock, 7)))
}

func TestConnectionLimit(t *testing.T) {
	addr, stop := startServer(t, 1)
	defer stop()

	first := dialRaw(t, addr)
	first.Write([]byte("*1\r\n$4\r\nping\r\n"))
	assert.Equal(t, "+PONG\r\n", string(readExact(t, first, 7)))

	// 许可耗尽 第二条连接完成握手但不会被服务
	second := dialRaw(t, addr)
	defer second.Close()
	second.Write([]byte("*1\r\n$4\r\nping\r\n"))

	second.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, err := second.Read(make([]byte, 1))
	nerr, ok := err.(net.Error)
	assert.True(t, ok)
	assert.True(t, nerr.Timeout())

	// 释放第一条连接后 第二条得到接入与回复
	first.Close()
	assert.Equal(t, "+PONG\r\n", string(readExact(t, second, 7)))
}

func TestGracefulShutdownDrainsHandlers(t *testing.T) {
	h := storage.NewHolder(common.NewOptions())
	defer h.Close()

	s, err := New(Config{Port: 0, MaxConnections: 16}, h.Store())
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Serve(ctx)
		close(done)
	}()

	// 一条普通连接 一条订阅模式连接
	c, err := client.Connect(s.Addr().String())
	assert.NoError(t, err)
	defer c.Close()
	assert.NoError(t, c.Set("k", []byte("v")))

	sc, err := client.Connect(s.Addr().String())
	assert.NoError(t, err)
	defer sc.Close()
	_, err = sc.Subscribe("hello")
	assert.NoError(t, err)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after shutdown")
	}
}
