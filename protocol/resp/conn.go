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
	"strconv"

	"github.com/pkg/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/respd/respd/common"
	"github.com/respd/respd/internal/bufbytes"
	"github.com/respd/respd/internal/splitio"
)

// Conn 单条 TCP 连接上的 RESP 编解码器
//
// 读方向持有一块可增长的缓冲 TCP 层不保证单次 Read 能拿到完整的 Frame
// 每轮先用 checkFrame 对缓冲窗口做零分配的完整性校验 校验通过才解析并消费
// 窗口内多余的字节留给下一次 ReadFrame
//
// 写方向每个最外层 Frame 编码进一块池化缓冲 再以单次 Write 落盘
// 客户端无需等待后续数据即可观察到完整回复
type Conn struct {
	sock net.Conn
	rbuf *bufbytes.Bytes
}

// NewConn 创建并返回 *Conn 实例
func NewConn(sock net.Conn) *Conn {
	return &Conn{
		sock: sock,
		rbuf: bufbytes.New(common.ReadBlockSize),
	}
}

// ReadFrame 读取下一个完整 Frame
//
// 对端在 Frame 边界处关闭连接返回 ErrClosed 中途关闭返回 ErrConnReset
// 数据不完整不是错误 会持续从 socket 补齐 协议错误原样上抛 由调用方断开连接
func (c *Conn) ReadFrame() (*Frame, error) {
	for {
		lr := splitio.NewReader(c.rbuf.Bytes())
		err := checkFrame(lr)
		if err == nil {
			n := lr.Pos()
			f, err := parseFrame(splitio.NewReader(c.rbuf.Bytes()[:n]))
			if err != nil {
				return nil, err
			}
			c.rbuf.Discard(n)
			return &f, nil
		}
		if !errors.Is(err, errShortFrame) {
			return nil, err
		}

		n, rerr := c.rbuf.ReadFrom(c.sock, common.ReadBlockSize)
		if rerr != nil && n == 0 {
			if errors.Is(rerr, io.EOF) {
				if c.rbuf.Len() == 0 {
					return nil, ErrClosed
				}
				return nil, ErrConnReset
			}
			return nil, rerr
		}
	}
}

// WriteFrame 编码并写出一个 Frame
func (c *Conn) WriteFrame(f *Frame) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := encodeFrame(buf, f); err != nil {
		return err
	}
	_, err := c.sock.Write(buf.Bytes())
	return err
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.sock.RemoteAddr()
}

func (c *Conn) Close() error {
	return c.sock.Close()
}

func encodeFrame(buf *bytebufferpool.ByteBuffer, f *Frame) error {
	switch f.Type {
	case SimpleStrings:
		buf.WriteByte('+')
		buf.WriteString(f.Str)
		buf.Write(splitio.CharCRLF)

	case Errors:
		buf.WriteByte('-')
		buf.WriteString(f.Str)
		buf.Write(splitio.CharCRLF)

	case Integers:
		buf.WriteByte(':')
		buf.B = strconv.AppendUint(buf.B, f.Int, 10)
		buf.Write(splitio.CharCRLF)

	case BulkStrings:
		buf.WriteByte('$')
		buf.B = strconv.AppendInt(buf.B, int64(len(f.Bulk)), 10)
		buf.Write(splitio.CharCRLF)
		buf.Write(f.Bulk)
		buf.Write(splitio.CharCRLF)

	case Null:
		buf.WriteString("$-1\r\n")

	case Arrays:
		buf.WriteByte('*')
		buf.B = strconv.AppendInt(buf.B, int64(len(f.Array)), 10)
		buf.Write(splitio.CharCRLF)
		for i := range f.Array {
			if err := encodeFrame(buf, &f.Array[i]); err != nil {
				return err
			}
		}

	default:
		return newError("encode unknown frame type %s", string(f.Type))
	}
	return nil
}
