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

	"github.com/spf13/cobra"

	"github.com/respd/respd/client"
	"github.com/respd/respd/common"
)

var (
	clientHostname string
	clientPort     int
)

// newClientCmd 客户端子命令的公共骨架 统一挂载连接参数
func newClientCmd(use string, short string, args cobra.PositionalArgs, run func(c *client.Client, args []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		Run: func(cmd *cobra.Command, args []string) {
			c, err := connect()
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
				os.Exit(1)
			}
			defer c.Close()

			if err := run(c, args); err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				os.Exit(1)
			}
		},
	}
	cmd.Flags().StringVar(&clientHostname, "hostname", common.DefaultHost, "Server hostname")
	cmd.Flags().IntVar(&clientPort, "port", common.DefaultPort, "Server port")
	return cmd
}

func connect() (*client.Client, error) {
	return client.Connect(fmt.Sprintf("%s:%d", clientHostname, clientPort))
}
