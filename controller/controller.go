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
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/respd/respd/admin"
	"github.com/respd/respd/common"
	"github.com/respd/respd/confengine"
	"github.com/respd/respd/internal/rescue"
	"github.com/respd/respd/internal/wait"
	"github.com/respd/respd/logger"
	"github.com/respd/respd/server"
	"github.com/respd/respd/storage"
)

type Config struct {
	Server server.Config `config:"server"`

	// Pubsub 发布订阅的投递缓冲配置
	Pubsub struct {
		BufferSize int `config:"bufferSize"`
	} `config:"pubsub"`
}

// Controller 组装并托管所有组件的生命周期
//
// 启动顺序: 日志 -> 存储 -> RESP 服务 -> 运维服务
// 关闭时先排空 RESP 服务 再关闭运维服务 最后释放存储
type Controller struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg       Config
	buildInfo common.BuildInfo

	holder *storage.Holder
	svr    *server.Server
	adm    *admin.Server

	// done 在 RESP 服务完全排空后关闭 serveErr 随之可读
	done     chan struct{}
	serveErr error
}

func setupLogger(conf *confengine.Config) error {
	var opts logger.Options
	if err := conf.UnpackChild("logger", &opts); err != nil {
		return err
	}

	if opts.Filename == "" {
		opts.Filename = "respd.log"
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 10
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 7
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 100
	}

	logger.SetOptions(opts)
	return nil
}

// New 创建并返回 Controller 实例
//
// port 大于 0 时覆盖配置文件内的监听端口 监听失败直接上抛
func New(conf *confengine.Config, buildInfo common.BuildInfo, port int) (*Controller, error) {
	if err := setupLogger(conf); err != nil {
		return nil, err
	}

	var cfg Config
	if err := conf.UnpackChild("server", &cfg.Server); err != nil {
		return nil, err
	}
	if err := conf.UnpackChild("pubsub", &cfg.Pubsub); err != nil {
		return nil, err
	}
	if port > 0 {
		cfg.Server.Port = port
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = common.DefaultPort
	}

	opts := common.NewOptions()
	opts.Merge("pubsubBuffer", cfg.Pubsub.BufferSize)
	holder := storage.NewHolder(opts)

	svr, err := server.New(cfg.Server, holder.Store())
	if err != nil {
		holder.Close()
		return nil, err
	}

	adm, err := admin.New(conf)
	if err != nil {
		holder.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		ctx:       ctx,
		cancel:    cancel,
		cfg:       cfg,
		buildInfo: buildInfo,
		holder:    holder,
		svr:       svr,
		adm:       adm,
		done:      make(chan struct{}),
	}, nil
}

func (c *Controller) Start() error {
	go func() {
		defer rescue.HandleCrash()
		c.serveErr = c.svr.Serve(c.ctx)
		close(c.done)
	}()

	if c.adm != nil {
		c.setupAdminRoutes()
		go func() {
			defer rescue.HandleCrash()
			if err := c.adm.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Errorf("admin server exits: %v", err)
			}
		}()
	}

	go wait.Every(c.ctx, 15*time.Second, c.recordMetrics)
	return nil
}

// Done RESP 服务退出时关闭 致命的接入错误也经由此处暴露
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Err 返回 RESP 服务的退出原因 仅在 Done 关闭后有意义
func (c *Controller) Err() error {
	return c.serveErr
}

// Stop 触发两阶段关闭并等待所有组件退出
func (c *Controller) Stop() error {
	c.cancel()
	<-c.done

	var errs error
	if c.serveErr != nil {
		errs = multierror.Append(errs, c.serveErr)
	}
	if c.adm != nil {
		if err := c.adm.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	c.holder.Close()
	return errs
}

// Reload 重新应用配置 仅日志选项支持热更新
//
// 监听地址与连接上限涉及在途连接 不做热切换
func (c *Controller) Reload(conf *confengine.Config) error {
	return setupLogger(conf)
}
