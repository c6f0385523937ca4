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

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/respd/respd/common"
	"github.com/respd/respd/confengine"
	"github.com/respd/respd/controller"
	"github.com/respd/respd/internal/sigs"
	"github.com/respd/respd/logger"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the key-value server",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}

		var port int
		if cmd.Flags().Changed("port") {
			port = serverPort
		}

		ctr, err := controller.New(cfg, common.GetBuildInfo(), port)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create controller: %v\n", err)
			os.Exit(1)
		}
		if err := ctr.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start controller: %v\n", err)
			os.Exit(1)
		}

		var reloadTotal int
		for {
			select {
			case <-sigs.Terminate():
				if err := ctr.Stop(); err != nil {
					logger.Errorf("shutdown finished with errors: %v", err)
				}
				return

			case <-ctr.Done():
				// 接入循环致命退出 排空已完成 以非零码结束进程
				if err := ctr.Err(); err != nil {
					fmt.Fprintf(os.Stderr, "server exited: %v\n", err)
					os.Exit(1)
				}
				return

			case <-sigs.Reload():
				reloadTotal++

				// 需要重新加载配置文件 reload 失败则保持原配置运行
				cfg, err := loadConfig(cmd)
				if err != nil {
					fmt.Fprintf(os.Stderr, "failed to load config (count=%d): %v\n", reloadTotal, err)
					continue
				}

				start := time.Now()
				if err := ctr.Reload(cfg); err != nil {
					logger.Errorf("failed to reload config: %v", err)
				}
				logger.Infof("reload (count=%d) take %s", reloadTotal, time.Since(start))
			}
		}
	},
	Example: "# respd server --config respd.yaml --port 6379",
}

var (
	configPath string
	serverPort int
)

// loadConfig 读取配置文件 未显式指定且默认文件不存在时回退到内置默认值
func loadConfig(cmd *cobra.Command) (*confengine.Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) && !cmd.Flags().Changed("config") {
			return confengine.LoadContent([]byte("{}"))
		}
		return nil, err
	}
	return confengine.LoadConfigPath(configPath)
}

func init() {
	serverCmd.Flags().StringVar(&configPath, "config", "respd.yaml", "Configuration file path")
	serverCmd.Flags().IntVar(&serverPort, "port", common.DefaultPort, "Port to listen on, overrides the config file")
	rootCmd.AddCommand(serverCmd)
}
