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
	"github.com/pkg/errors"

	"github.com/respd/respd/protocol/resp"
)

// Ping 连通性探测 可携带回显内容
type Ping struct {
	message []byte
}

func NewPing(message []byte) *Ping {
	return &Ping{message: message}
}

func parsePing(cursor *resp.Cursor) (*Ping, error) {
	message, err := cursor.NextBytes()
	if errors.Is(err, resp.ErrEndOfStream) {
		return &Ping{}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := cursor.Finish(); err != nil {
		return nil, err
	}
	return &Ping{message: message}, nil
}

func (c *Ping) Name() string {
	return "ping"
}

// Apply 无参数回复 PONG 带参数原样回显
func (c *Ping) Apply() resp.Frame {
	if c.message == nil {
		return resp.NewSimple("PONG")
	}
	return resp.NewBulk(c.message)
}

func (c *Ping) Frame() resp.Frame {
	f := newCommandFrame(c.Name())
	if c.message != nil {
		f.PushBulk(c.message)
	}
	return f
}
