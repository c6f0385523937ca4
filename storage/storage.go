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

package storage

import (
	"sync"
	"time"

	"github.com/respd/respd/common"
	"github.com/respd/respd/internal/broadcast"
	"github.com/respd/respd/internal/rescue"
	"github.com/respd/respd/logger"
)

// Holder 持有 Store 的生命周期
//
// 所有连接与后台清理任务共享同一个 Store 句柄
// Holder 负责在进程退出时置位关闭标记并唤醒清理任务 使其主动退出
type Holder struct {
	store *Store
}

func NewHolder(opts common.Options) *Holder {
	return &Holder{store: NewStore(opts)}
}

func (h *Holder) Store() *Store {
	return h.store
}

// Close 终止后台清理任务
func (h *Holder) Close() {
	h.store.shutdownPurge()
}

// Store 共享的内存状态
//
// 键空间 过期索引 与发布订阅注册表由同一把互斥锁保护
// 锁的临界区都很短 且锁内不做任何可能阻塞的操作
type Store struct {
	mut   sync.Mutex
	state *state

	// wake 通知后台清理任务的最早到期时间可能已提前
	//
	// 容量为 1 的信号通道 重复通知自然合并
	// 通知永远在锁释放之后发出 避免清理任务醒来后立刻挡在锁上
	wake chan struct{}

	pubsubBuffer int
}

type state struct {
	entries     map[string]entry
	pubsub      map[string]*broadcast.Sender
	expirations *expIndex
	shutdown    bool
}

// entry 键空间的值对象 一旦写入不再修改 替换即产生新的 entry
type entry struct {
	data      []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(now)
}

func NewStore(opts common.Options) *Store {
	buffer, err := opts.GetInt("pubsubBuffer")
	if err != nil || buffer <= 0 {
		buffer = common.BroadcastBufferSize
	}

	s := &Store{
		state: &state{
			entries:     make(map[string]entry),
			pubsub:      make(map[string]*broadcast.Sender),
			expirations: newExpIndex(),
		},
		wake:         make(chan struct{}, 1),
		pubsubBuffer: buffer,
	}
	go s.purgeLoop()
	return s
}

// Get 读取 key 对应的值 不存在时返回 nil
//
// 已过期但尚未被清理的条目视为不存在 读侧不做删除 删除统一由清理任务执行
func (s *Store) Get(key string) []byte {
	s.mut.Lock()
	defer s.mut.Unlock()

	e, ok := s.state.entries[key]
	if !ok || e.expired(time.Now()) {
		return nil
	}
	return e.data
}

// Set 写入或替换 key 对应的值 ttl 为 0 表示永不过期
//
// 旧条目的过期索引会被同步移除 新条目若带来了更早的到期时间 则唤醒清理任务
func (s *Store) Set(key string, value []byte, ttl time.Duration) {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	s.mut.Lock()

	notify := false
	if prev, ok := s.state.entries[key]; ok && !prev.expiresAt.IsZero() {
		s.state.expirations.remove(prev.expiresAt, key)
	}
	if !expiresAt.IsZero() {
		min, ok := s.state.expirations.min()
		notify = !ok || expiresAt.Before(min)
		s.state.expirations.insert(expiresAt, key)
	}
	s.state.entries[key] = entry{data: value, expiresAt: expiresAt}

	s.mut.Unlock()

	if notify {
		s.notifyPurge()
	}
}

// Subscribe 订阅频道 返回独立的消费端 频道不存在时惰性创建
func (s *Store) Subscribe(channel string) *broadcast.Receiver {
	s.mut.Lock()
	defer s.mut.Unlock()

	sender, ok := s.state.pubsub[channel]
	if !ok {
		sender = broadcast.NewSender(s.pubsubBuffer)
		s.state.pubsub[channel] = sender
	}
	return sender.Subscribe()
}

// Publish 向频道投递一条消息 返回接收到该消息的订阅者个数
//
// 锁内只做发送端查找 实际投递在锁外进行
func (s *Store) Publish(channel string, message []byte) int {
	s.mut.Lock()
	sender := s.state.pubsub[channel]
	s.mut.Unlock()

	publishedMessagesTotal.Inc()
	if sender == nil {
		return 0
	}
	return sender.Send(message)
}

// Stats 返回当前的键 频道与订阅者数量
func (s *Store) Stats() (keys int, channels int, subscribers int) {
	s.mut.Lock()
	defer s.mut.Unlock()

	for _, sender := range s.state.pubsub {
		subscribers += sender.Len()
	}
	return len(s.state.entries), len(s.state.pubsub), subscribers
}

// shutdownPurge 置位关闭标记并唤醒清理任务
func (s *Store) shutdownPurge() {
	s.mut.Lock()
	s.state.shutdown = true
	s.mut.Unlock()

	s.notifyPurge()
}

func (s *Store) notifyPurge() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// purgeLoop 后台清理任务
//
// 每轮持锁清理所有已到期的条目 并取出最早的存活到期时间
// 随后在 "定时器到期" 与 "被唤醒" 两个事件上等待 先到者触发下一轮
// 没有任何待过期条目时只等待唤醒 不做空轮询
func (s *Store) purgeLoop() {
	defer rescue.HandleCrash()

	for {
		next, shutdown := s.purgeExpired()
		if shutdown {
			logger.Infof("purge task exits")
			return
		}

		if next.IsZero() {
			<-s.wake
			continue
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
		case <-s.wake:
			timer.Stop()
		}
	}
}

// purgeExpired 清理所有到期条目 返回最早的存活到期时间
func (s *Store) purgeExpired() (next time.Time, shutdown bool) {
	s.mut.Lock()
	defer s.mut.Unlock()

	if s.state.shutdown {
		return time.Time{}, true
	}

	now := time.Now()
	purged := 0
	for {
		when, key, ok := s.state.expirations.first()
		if !ok {
			break
		}
		if when.After(now) {
			next = when
			break
		}

		s.state.expirations.remove(when, key)
		delete(s.state.entries, key)
		purged++
	}

	if purged > 0 {
		expiredKeysTotal.Add(float64(purged))
		logger.Debugf("purged %d expired key(s)", purged)
	}
	return next, false
}
