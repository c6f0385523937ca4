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
	"net/http"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/respd/respd/common"
	"github.com/respd/respd/internal/fasttime"
	"github.com/respd/respd/internal/sigs"
	"github.com/respd/respd/logger"
)

func (c *Controller) setupAdminRoutes() {
	// Admin Routes
	c.adm.RegisterPostRoute("/-/logger", c.routeLogger)
	c.adm.RegisterPostRoute("/-/reload", c.routeReload)

	// Metrics Routes
	c.adm.RegisterGetRoute("/metrics", c.routeMetrics)
	c.adm.RegisterGetRoute("/stats", c.routeStats)
}

func (c *Controller) routeMetrics(w http.ResponseWriter, r *http.Request) {
	c.recordMetrics()
	promhttp.Handler().ServeHTTP(w, r)
}

func (c *Controller) routeLogger(w http.ResponseWriter, r *http.Request) {
	level := r.FormValue("level")
	logger.SetLoggerLevel(level)
	w.Write([]byte(`{"status": "success"}`))
}

func (c *Controller) routeReload(w http.ResponseWriter, r *http.Request) {
	if err := sigs.SelfReload(); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}
}

type statsResponse struct {
	Version     string `json:"version"`
	GitHash     string `json:"git_hash"`
	Uptime      int64  `json:"uptime"`
	Keys        int    `json:"keys"`
	Channels    int    `json:"channels"`
	Subscribers int    `json:"subscribers"`
	Connections int    `json:"connections"`
}

func (c *Controller) routeStats(w http.ResponseWriter, r *http.Request) {
	keys, channels, subscribers := c.holder.Store().Stats()
	rsp := statsResponse{
		Version:     c.buildInfo.Version,
		GitHash:     c.buildInfo.GitHash,
		Uptime:      fasttime.UnixTimestamp() - common.Started(),
		Keys:        keys,
		Channels:    channels,
		Subscribers: subscribers,
		Connections: c.svr.ActiveConns(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
