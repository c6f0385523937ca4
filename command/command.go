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

package command

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/respd/respd/protocol/resp"
)

func newError(format string, args ...any) error {
	format = "command: " + format
	return errors.Errorf(format, args...)
}

// SyntaxError 命令语法错误
//
// 以错误帧的形式回复给客户端 连接保持存活
// 与之相对 Cursor 的类型不匹配与参数缺失属于协议层错误 直接断开连接
type SyntaxError struct {
	message string
}

func newSyntaxError(format string, args ...any) *SyntaxError {
	return &SyntaxError{message: fmt.Sprintf(format, args...)}
}

func (e *SyntaxError) Error() string {
	return e.message
}

// ErrorFrame 语法错误对应的回复帧
func (e *SyntaxError) ErrorFrame() resp.Frame {
	return resp.NewError("ERR " + e.message)
}

// Command 客户端请求的标签联合
//
// 每种命令知道如何从 Frame 解码 如何编码回 Frame
// 命令名大小写不敏感 已知命令编码时统一使用小写 Unknown 保留原始命令名
type Command interface {
	// Name 返回命令名 已知命令为小写 Unknown 为原始命令名
	Name() string

	// Frame 将命令编码回请求 Frame 首元素为 Name 返回的命令名
	Frame() resp.Frame
}

// FromFrame 从一个 Arrays Frame 解码出命令
//
// 未知的命令名不是解码错误 会得到 *Unknown 并在应用时回复错误帧
func FromFrame(f *resp.Frame) (Command, error) {
	cursor, err := resp.NewCursor(f)
	if err != nil {
		return nil, err
	}

	name, err := cursor.NextString()
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(name) {
	case "get":
		return parseGet(cursor)
	case "set":
		return parseSet(cursor)
	case "publish":
		return parsePublish(cursor)
	case "subscribe":
		return parseSubscribe(cursor)
	case "unsubscribe":
		return parseUnsubscribe(cursor)
	case "ping":
		return parsePing(cursor)
	}
	return &Unknown{name: name}, nil
}

func newCommandFrame(name string) resp.Frame {
	f := resp.NewArray()
	f.PushBulk([]byte(name))
	return f
}
