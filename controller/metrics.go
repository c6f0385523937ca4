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

package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/respd/respd/common"
	"github.com/respd/respd/internal/fasttime"
)

var (
	uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "uptime",
			Help:      "Uptime in seconds",
		},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version", "git_hash", "build_time"},
	)

	storeKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "store_keys",
			Help:      "Keys currently held in the store",
		},
	)

	pubsubChannels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "pubsub_channels",
			Help:      "Channels currently registered in the store",
		},
	)

	pubsubSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "pubsub_subscribers",
			Help:      "Subscribers currently attached across all channels",
		},
	)
)

func (c *Controller) recordMetrics() {
	uptime.Set(float64(fasttime.UnixTimestamp() - common.Started()))
	buildInfo.WithLabelValues(c.buildInfo.Version, c.buildInfo.GitHash, c.buildInfo.Time).Set(1)

	keys, channels, subscribers := c.holder.Store().Stats()
	storeKeys.Set(float64(keys))
	pubsubChannels.Set(float64(channels))
	pubsubSubscribers.Set(float64(subscribers))
}
