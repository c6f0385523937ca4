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

package resp

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConnReadFrame(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go func() {
		client.Write([]byte("*1\r\n$4\r\nping\r\n"))
	}()

	conn := NewConn(server)
	defer conn.Close()

	f, err := conn.ReadFrame()
	assert.NoError(t, err)

	want := NewArray()
	want.PushBulk([]byte("ping"))
	assert.Equal(t, want, *f)
}

func TestConnReadFramePartialWrites(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	// 模拟 TCP 层把一个 Frame 切割成多段到达
	go func() {
		for _, chunk := range []string{"*2\r\n$3", "\r\nget\r\n$4\r", "\nkey1\r\n"} {
			client.Write([]byte(chunk))
			time.Sleep(time.Millisecond)
		}
	}()

	conn := NewConn(server)
	defer conn.Close()

	f, err := conn.ReadFrame()
	assert.NoError(t, err)

	want := NewArray()
	want.PushBulk([]byte("get"))
	want.PushBulk([]byte("key1"))
	assert.Equal(t, want, *f)
}

func TestConnReadFramePipelinedBytes(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go func() {
		client.Write([]byte("+OK\r\n+PONG\r\n"))
	}()

	conn := NewConn(server)
	defer conn.Close()

	f, err := conn.ReadFrame()
	assert.NoError(t, err)
	assert.Equal(t, NewSimple("OK"), *f)

	// 上一轮多余的字节必须留在缓冲内供下一次读取
	f, err = conn.ReadFrame()
	assert.NoError(t, err)
	assert.Equal(t, NewSimple("PONG"), *f)
}

func TestConnReadFrameCleanEOF(t *testing.T) {
	client, server := net.Pipe()

	go func() {
		client.Close()
	}()

	conn := NewConn(server)
	defer conn.Close()

	_, err := conn.ReadFrame()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestConnReadFrameResetMidFrame(t *testing.T) {
	client, server := net.Pipe()

	go func() {
		client.Write([]byte("*2\r\n$3\r\nget"))
		client.Close()
	}()

	conn := NewConn(server)
	defer conn.Close()

	_, err := conn.ReadFrame()
	assert.ErrorIs(t, err, ErrConnReset)
}

func TestConnReadFrameMalformed(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go func() {
		client.Write([]byte("?what\r\n"))
	}()

	conn := NewConn(server)
	defer conn.Close()

	_, err := conn.ReadFrame()
	assert.ErrorIs(t, err, errInvalidFrameType)
}

func TestConnWriteFrame(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	conn := NewConn(server)
	defer conn.Close()

	done := make(chan []byte, 1)
	go func() {
		b := make([]byte, 64)
		n, _ := client.Read(b)
		done <- b[:n]
	}()

	f := NewArray()
	f.PushBulk([]byte("message"))
	f.PushBulk([]byte("hello"))
	f.PushBulk([]byte("world"))
	assert.NoError(t, conn.WriteFrame(&f))

	select {
	case got := <-done:
		assert.Equal(t, "*3\r\n$7\r\nmessage\r\n$5\r\nhello\r\n$5\r\nworld\r\n", string(got))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame bytes")
	}
}

func TestConnWriteReadLoop(t *testing.T) {
	client, server := net.Pipe()

	cc := NewConn(client)
	sc := NewConn(server)
	defer cc.Close()
	defer sc.Close()

	go func() {
		f, err := sc.ReadFrame()
		if err != nil {
			return
		}
		_ = f
		reply := NewSimple("PONG")
		sc.WriteFrame(&reply)
	}()

	ping := NewArray()
	ping.PushBulk([]byte("ping"))
	assert.NoError(t, cc.WriteFrame(&ping))

	got, err := cc.ReadFrame()
	assert.NoError(t, err)
	assert.Equal(t, NewSimple("PONG"), *got)
}

var _ io.Closer = (*Conn)(nil)
