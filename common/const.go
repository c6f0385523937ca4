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

package common

const (
	// App 应用程序名称
	App = "respd"

	// Version 应用程序版本
	Version = "v0.0.1"

	// ReadBlockSize 单次从 socket 读取的最大字节数
	//
	// RESP 的单个 Frame 并没有固定长度上限（BulkStrings 最大可达 512MB）
	// 读缓冲按需增长 但每轮 Read 以固定块长推进 避免一次性申请过大空间
	ReadBlockSize = 4096

	// DefaultPort 服务默认监听端口 与 Redis 保持一致
	DefaultPort = 6379

	// DefaultHost 服务默认监听地址 仅绑定本机回环
	DefaultHost = "127.0.0.1"

	// MaxConnections 服务端默认的最大并发连接数
	MaxConnections = 250

	// BroadcastBufferSize 单个订阅者的消息缓冲长度 写满后丢弃最旧消息
	BroadcastBufferSize = 1024
)
