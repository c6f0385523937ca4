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
	"sort"

	"github.com/pkg/errors"

	"github.com/respd/respd/command"
	"github.com/respd/respd/internal/broadcast"
	"github.com/respd/respd/internal/rescue"
	"github.com/respd/respd/logger"
	"github.com/respd/respd/protocol/resp"
	"github.com/respd/respd/storage"
)

// handler 驱动单条连接的命令循环
//
// 连接以普通模式启动 收到 SUBSCRIBE 后进入订阅模式直到连接结束
// 两种模式的循环差异足够大 以两个显式状态建模而不是做多态抽象
type handler struct {
	store *storage.Store
	conn  *resp.Conn

	// subs 订阅模式下的频道消费端集合 由转发协程扇入至 messages
	subs     map[string]*broadcast.Receiver
	messages chan pubMessage
}

type pubMessage struct {
	channel string
	payload []byte
}

type readResult struct {
	frame *resp.Frame
	err   error
}

func newHandler(store *storage.Store, conn *resp.Conn) *handler {
	return &handler{
		store:    store,
		conn:     conn,
		subs:     make(map[string]*broadcast.Receiver),
		messages: make(chan pubMessage),
	}
}

// run 普通模式主循环 等待下一个 Frame 或终止信号
//
// 对端正常断开与终止信号都会让循环在 Frame 边界处干净返回
// 协议错误终止当前连接 其余连接不受影响
func (h *handler) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer h.conn.Close()
	defer h.closeSubs()

	frames := h.readFrames(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case r := <-frames:
			if r.err != nil {
				h.logReadError(r.err)
				return
			}

			cmd, err := h.decode(r.frame)
			if err != nil {
				return
			}
			if cmd == nil {
				continue
			}

			switch c := cmd.(type) {
			case *command.Get:
				err = h.write(c.Apply(h.store))
			case *command.Set:
				err = h.write(c.Apply(h.store))
			case *command.Publish:
				err = h.write(c.Apply(h.store))
			case *command.Ping:
				err = h.write(c.Apply())
			case *command.Unknown:
				err = h.write(c.Apply())
			case *command.Subscribe:
				h.pubsubLoop(ctx, frames, c.Channels())
				return
			case *command.Unsubscribe:
				err = h.write(resp.NewError("ERR UNSUBSCRIBE is only allowed in subscribe mode"))
			}
			if err != nil {
				logger.Warnf("write to %s failed: %v", h.conn.RemoteAddr(), err)
				return
			}
		}
	}
}

// pubsubLoop 订阅模式主循环
//
// 在三类事件上等待: 任一频道的下一条消息 / 客户端的下一个 Frame / 终止信号
// 此模式下仅接受 SUBSCRIBE UNSUBSCRIBE PING 其余命令回复错误帧但不断开
func (h *handler) pubsubLoop(ctx context.Context, frames <-chan readResult, pending []string) {
	for {
		for _, ch := range pending {
			if err := h.subscribe(ctx, ch); err != nil {
				return
			}
		}
		pending = nil

		select {
		case <-ctx.Done():
			return

		case m := <-h.messages:
			if err := h.write(messageFrame(m)); err != nil {
				return
			}

		case r := <-frames:
			if r.err != nil {
				h.logReadError(r.err)
				return
			}

			cmd, err := h.decode(r.frame)
			if err != nil {
				return
			}
			if cmd == nil {
				continue
			}

			switch c := cmd.(type) {
			case *command.Subscribe:
				pending = c.Channels()

			case *command.Unsubscribe:
				if err := h.unsubscribe(c.Channels()); err != nil {
					return
				}

			case *command.Ping:
				if err := h.write(c.Apply()); err != nil {
					return
				}

			default:
				reply := resp.NewError(fmt.Sprintf("ERR unknown command '%s'", cmd.Name()))
				if err := h.write(reply); err != nil {
					return
				}
			}
		}
	}
}

// subscribe 订阅单个频道并回复确认帧 重复订阅只重复确认
func (h *handler) subscribe(ctx context.Context, channel string) error {
	if _, ok := h.subs[channel]; !ok {
		r := h.store.Subscribe(channel)
		h.subs[channel] = r
		go h.forward(ctx, channel, r)
	}
	return h.write(subscribeFrame(channel, len(h.subs)))
}

// unsubscribe 退订指定频道 空列表表示退订当前全部
//
// 退订未订阅的频道不是错误 确认帧携带当前剩余订阅数
func (h *handler) unsubscribe(channels []string) error {
	if len(channels) == 0 {
		channels = make([]string, 0, len(h.subs))
		for ch := range h.subs {
			channels = append(channels, ch)
		}
		sort.Strings(channels)
	}

	for _, ch := range channels {
		if r, ok := h.subs[ch]; ok {
			r.Close()
			delete(h.subs, ch)
		}
		if err := h.write(unsubscribeFrame(ch, len(h.subs))); err != nil {
			return err
		}
	}
	return nil
}

// forward 把单个频道的消息转发进扇入通道
//
// 消费过慢导致的消息丢失只影响本订阅者 记录日志后从下一条存活消息继续
func (h *handler) forward(ctx context.Context, channel string, r *broadcast.Receiver) {
	defer rescue.HandleCrash()

	for {
		p, err := r.Recv(ctx)
		if errors.Is(err, broadcast.ErrLagged) {
			logger.Warnf("subscriber %s lagged on channel %s, messages dropped",
				h.conn.RemoteAddr(), channel)
			continue
		}
		if err != nil {
			return
		}

		select {
		case h.messages <- pubMessage{channel: channel, payload: p}:
		case <-ctx.Done():
			return
		}
	}
}

// readFrames 读协程 将解码好的 Frame 源源不断送入通道
func (h *handler) readFrames(ctx context.Context) <-chan readResult {
	frames := make(chan readResult)

	go func() {
		defer rescue.HandleCrash()
		for {
			f, err := h.conn.ReadFrame()
			select {
			case frames <- readResult{frame: f, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return frames
}

// decode 将 Frame 解码为命令
//
// 语法错误回复错误帧并返回 (nil, nil) 连接继续
// 协议层错误记录日志并返回错误 由调用方断开连接
func (h *handler) decode(f *resp.Frame) (command.Command, error) {
	cmd, err := command.FromFrame(f)
	if err != nil {
		var serr *command.SyntaxError
		if errors.As(err, &serr) {
			reply := serr.ErrorFrame()
			if werr := h.write(reply); werr != nil {
				return nil, werr
			}
			return nil, nil
		}

		protocolErrorsTotal.Inc()
		logger.Warnf("bad command from %s: %v", h.conn.RemoteAddr(), err)
		return nil, err
	}

	commandsTotal.WithLabelValues(commandLabel(cmd)).Inc()
	return cmd, nil
}

func (h *handler) write(f resp.Frame) error {
	return h.conn.WriteFrame(&f)
}

func (h *handler) closeSubs() {
	for _, r := range h.subs {
		r.Close()
	}
}

func (h *handler) logReadError(err error) {
	switch {
	case errors.Is(err, resp.ErrClosed):
		logger.Debugf("peer %s closed connection", h.conn.RemoteAddr())
	case errors.Is(err, resp.ErrConnReset):
		logger.Warnf("connection reset by peer %s", h.conn.RemoteAddr())
	default:
		protocolErrorsTotal.Inc()
		logger.Warnf("read from %s failed: %v", h.conn.RemoteAddr(), err)
	}
}

// commandLabel 指标用的命令标签 未知命令统一归并 避免标签基数失控
func commandLabel(cmd command.Command) string {
	if _, ok := cmd.(*command.Unknown); ok {
		return "unknown"
	}
	return cmd.Name()
}

func subscribeFrame(channel string, total int) resp.Frame {
	f := resp.NewArray()
	f.PushBulk([]byte("subscribe"))
	f.PushBulk([]byte(channel))
	f.PushInt(uint64(total))
	return f
}

func unsubscribeFrame(channel string, remaining int) resp.Frame {
	f := resp.NewArray()
	f.PushBulk([]byte("unsubscribe"))
	f.PushBulk([]byte(channel))
	f.PushInt(uint64(remaining))
	return f
}

func messageFrame(m pubMessage) resp.Frame {
	f := resp.NewArray()
	f.PushBulk([]byte("message"))
	f.PushBulk([]byte(m.channel))
	f.PushBulk(m.payload)
	return f
}
