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
	"sort"
	"time"
)

// expIndex 过期索引 按 (到期时间, key) 全序排列的有序集合
//
// key 参与排序用于打破相同到期时间的冲突 否则同一时刻的两次写入会互相覆盖
// 不变量: 每个带过期时间的键在索引中恰好出现一次 无过期时间的键不出现
type expIndex struct {
	pairs []timeKey
}

type timeKey struct {
	when time.Time
	key  string
}

func newExpIndex() *expIndex {
	return &expIndex{}
}

// search 返回 (when, key) 的有序插入位置
func (idx *expIndex) search(when time.Time, key string) int {
	return sort.Search(len(idx.pairs), func(i int) bool {
		p := idx.pairs[i]
		if !p.when.Equal(when) {
			return p.when.After(when)
		}
		return p.key >= key
	})
}

func (idx *expIndex) insert(when time.Time, key string) {
	i := idx.search(when, key)
	idx.pairs = append(idx.pairs, timeKey{})
	copy(idx.pairs[i+1:], idx.pairs[i:])
	idx.pairs[i] = timeKey{when: when, key: key}
}

func (idx *expIndex) remove(when time.Time, key string) {
	i := idx.search(when, key)
	if i >= len(idx.pairs) {
		return
	}
	if p := idx.pairs[i]; !p.when.Equal(when) || p.key != key {
		return
	}
	idx.pairs = append(idx.pairs[:i], idx.pairs[i+1:]...)
}

// first 返回最早的索引对
func (idx *expIndex) first() (time.Time, string, bool) {
	if len(idx.pairs) == 0 {
		return time.Time{}, "", false
	}
	p := idx.pairs[0]
	return p.when, p.key, true
}

// min 返回最早的到期时间
func (idx *expIndex) min() (time.Time, bool) {
	when, _, ok := idx.first()
	return when, ok
}

func (idx *expIndex) len() int {
	return len(idx.pairs)
}
