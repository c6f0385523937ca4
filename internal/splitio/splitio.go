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

package splitio

import (
	"bytes"
)

var (
	CharCRLF = []byte("\r\n")
	CharCR   = []byte("\r")
	CharLF   = []byte("\n")
)

// Reader 在一段字节切片上提供按行与按块的读取
//
// 读取均为零拷贝 返回的切片是对底层数据的引用 如有修改需求请自行拷贝
// ReadLine / ReadN 在剩余数据不足时不推进游标 调用方可在补齐数据后重试
// 此版本会比 *bufio.Reader 性能更高 后者会拷贝 buf 内容造成额外的开销
type Reader struct {
	r int
	b []byte
}

// NewReader 创建并返回 *Reader 实例
func NewReader(b []byte) *Reader {
	return &Reader{b: b}
}

// ReadLine 读取下一行 返回内容保留行终止符
//
// 剩余数据中不存在换行符时返回 false 且游标保持不变
func (lr *Reader) ReadLine() ([]byte, bool) {
	idx := bytes.IndexByte(lr.b[lr.r:], CharLF[0])
	if idx == -1 {
		return nil, false
	}

	line := lr.b[lr.r : lr.r+idx+1]
	lr.r += idx + 1
	return line, true
}

// ReadN 读取接下来的 n 个字节
//
// 剩余数据不足 n 字节时返回 false 且游标保持不变
func (lr *Reader) ReadN(n int) ([]byte, bool) {
	if len(lr.b)-lr.r < n {
		return nil, false
	}

	b := lr.b[lr.r : lr.r+n]
	lr.r += n
	return b, true
}

// Pos 返回已消费的字节数
func (lr *Reader) Pos() int {
	return lr.r
}

// Len 返回尚未消费的字节数
func (lr *Reader) Len() int {
	return len(lr.b) - lr.r
}

// EOF 返回 Reader 是否已到达 EOF
func (lr *Reader) EOF() bool {
	return lr.r >= len(lr.b)
}
