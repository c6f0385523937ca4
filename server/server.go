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
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/respd/respd/common"
	"github.com/respd/respd/internal/rescue"
	"github.com/respd/respd/logger"
	"github.com/respd/respd/protocol/resp"
	"github.com/respd/respd/storage"
)

// maxAcceptBackoff Accept 失败的最大退避时长 超过后视为致命错误
const maxAcceptBackoff = 64 * time.Second

type Config struct {
	Host           string `config:"host"`
	Port           int    `config:"port"`
	MaxConnections int    `config:"maxConnections"`
}

func (c Config) address() string {
	host := c.Host
	if host == "" {
		host = common.DefaultHost
	}
	return fmt.Sprintf("%s:%d", host, c.Port)
}

// Server RESP 协议的 TCP 服务端
//
// 每条被接入的连接由一个独立的 handler goroutine 驱动
// 接入由计数信号量控制 达到上限后新的连接在握手层等待而不是被拒绝
type Server struct {
	config Config
	store  *storage.Store

	ln net.Listener

	// permits 接入许可 容量即最大并发连接数
	// 许可在 Accept 之前取得 连接结束时归还
	permits chan struct{}

	// wg 排空屏障 每个 handler 持有一份计数
	// 关闭流程在广播终止信号后等待所有 handler 归还计数
	wg sync.WaitGroup
}

// New 创建并返回 Server 实例 监听在此完成 失败直接上抛给调用方
func New(config Config, store *storage.Store) (*Server, error) {
	if config.MaxConnections <= 0 {
		config.MaxConnections = common.MaxConnections
	}

	ln, err := net.Listen("tcp", config.address())
	if err != nil {
		return nil, err
	}

	return &Server{
		config:  config,
		store:   store,
		ln:      ln,
		permits: make(chan struct{}, config.MaxConnections),
	}, nil
}

// Addr 返回实际监听的地址
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// ActiveConns 返回当前占用的接入许可数
func (s *Server) ActiveConns() int {
	return len(s.permits)
}

// Serve 运行接入循环直到 ctx 被取消或发生致命错误
//
// 两阶段关闭: 先取消所有 handler 的上下文并关闭监听 随后阻塞在排空屏障上
// 仅当每个已接入的 handler 都返回后 Serve 才返回
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()

	logger.Infof("server listening on %s", s.ln.Addr())
	err := s.acceptLoop(ctx)

	cancel()
	s.wg.Wait()
	logger.Infof("server drained, all handlers returned")
	return err
}

// acceptLoop 接入循环
//
// 瞬时的 Accept 失败按指数退避重试 从 1s 起每次翻倍
// 在 64s 档期之后仍失败则作为致命错误上抛
func (s *Server) acceptLoop(ctx context.Context) error {
	backoff := time.Second

	for {
		select {
		case s.permits <- struct{}{}:
		case <-ctx.Done():
			return nil
		}

		sock, err := s.ln.Accept()
		if err != nil {
			<-s.permits
			if ctx.Err() != nil {
				return nil
			}
			if backoff > maxAcceptBackoff {
				return err
			}

			logger.Warnf("accept failed: %v, retry in %s", err, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil
			}
			backoff *= 2
			continue
		}
		backoff = time.Second

		connectionsTotal.Inc()
		connectionsActive.Inc()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				<-s.permits
				connectionsActive.Dec()
			}()
			defer rescue.HandleCrash()

			h := newHandler(s.store, resp.NewConn(sock))
			h.run(ctx)
		}()
	}
}
