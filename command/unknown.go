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

	"github.com/respd/respd/protocol/resp"
)

// Unknown 词汇表之外的命令 保留原始命令名用于回复
type Unknown struct {
	name string
}

func NewUnknown(name string) *Unknown {
	return &Unknown{name: name}
}

func (c *Unknown) Name() string {
	return c.name
}

// Apply 回复错误帧 连接保持存活
func (c *Unknown) Apply() resp.Frame {
	return resp.NewError(fmt.Sprintf("ERR unknown command '%s'", c.name))
}

func (c *Unknown) Frame() resp.Frame {
	return newCommandFrame(c.name)
}
