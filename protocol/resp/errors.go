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
	"github.com/pkg/errors"
)

func newError(format string, args ...any) error {
	format = "resp: " + format
	return errors.Errorf(format, args...)
}

var (
	// errShortFrame 窗口内的数据还不足以构成一个完整 Frame
	//
	// 仅在包内驱动读循环使用 不会向调用方暴露
	errShortFrame = newError("short frame")

	// ErrClosed 对端在 Frame 边界处正常关闭连接
	ErrClosed = newError("connection closed")

	// ErrConnReset 对端在 Frame 中途关闭连接 窗口内残留未消费数据
	ErrConnReset = newError("connection reset by peer")

	// ErrEndOfStream 数组元素已全部消费 用于带可选尾部参数的命令解析
	ErrEndOfStream = newError("end of stream")

	errInvalidFrameType = newError("invalid frame type byte")
	errMissingCRLF      = newError("line not terminated by CRLF")
	errInvalidDecimal   = newError("invalid decimal")
	errInvalidBulkLen   = newError("invalid bulk length")
	errInvalidUTF8      = newError("invalid utf-8 text")
)
