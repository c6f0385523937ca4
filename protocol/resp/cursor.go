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
	"encoding/binary"
	"strconv"
	"unicode/utf8"
)

// Cursor 将一个 Arrays Frame 作为带类型的 token 流逐个消费
//
// 命令解码按参数位置依次取值 元素耗尽返回 ErrEndOfStream
// 带可选尾部参数的命令以此区分 "参数不存在" 与 "参数类型不符"
type Cursor struct {
	frames []Frame
	pos    int
}

// NewCursor 创建并返回 *Cursor 实例 仅接受 Arrays 类型的 Frame
func NewCursor(f *Frame) (*Cursor, error) {
	if f.Type != Arrays {
		return nil, newError("cursor expects an array frame, got %s", string(f.Type))
	}
	return &Cursor{frames: f.Array}, nil
}

func (c *Cursor) next() (*Frame, error) {
	if c.pos >= len(c.frames) {
		return nil, ErrEndOfStream
	}
	f := &c.frames[c.pos]
	c.pos++
	return f, nil
}

// NextString 消费下一个元素并以 UTF-8 字符串返回
func (c *Cursor) NextString() (string, error) {
	f, err := c.next()
	if err != nil {
		return "", err
	}

	switch f.Type {
	case SimpleStrings:
		return f.Str, nil
	case BulkStrings:
		if !utf8.Valid(f.Bulk) {
			return "", errInvalidUTF8
		}
		return string(f.Bulk), nil
	}
	return "", newError("cursor expects simple or bulk string, got %s", string(f.Type))
}

// NextBytes 消费下一个元素并以字节串返回
//
// Integers 以 8 字节大端编码返回
func (c *Cursor) NextBytes() ([]byte, error) {
	f, err := c.next()
	if err != nil {
		return nil, err
	}

	switch f.Type {
	case SimpleStrings:
		return []byte(f.Str), nil
	case BulkStrings:
		return f.Bulk, nil
	case Integers:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, f.Int)
		return b, nil
	}
	return nil, newError("cursor expects simple, bulk or integer, got %s", string(f.Type))
}

// NextInt 消费下一个元素并以无符号整数返回
//
// Integers 直接取值 数字形式的 SimpleStrings / BulkStrings 做十进制解析
func (c *Cursor) NextInt() (uint64, error) {
	f, err := c.next()
	if err != nil {
		return 0, err
	}

	switch f.Type {
	case Integers:
		return f.Int, nil
	case SimpleStrings:
		n, err := strconv.ParseUint(f.Str, 10, 64)
		if err != nil {
			return 0, errInvalidDecimal
		}
		return n, nil
	case BulkStrings:
		n, err := strconv.ParseUint(string(f.Bulk), 10, 64)
		if err != nil {
			return 0, errInvalidDecimal
		}
		return n, nil
	}
	return 0, newError("cursor expects an integer-like frame, got %s", string(f.Type))
}

// Finish 断言所有元素均已消费
func (c *Cursor) Finish() error {
	if c.pos != len(c.frames) {
		return newError("cursor expects end of frame, %d element(s) left", len(c.frames)-c.pos)
	}
	return nil
}
