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

	"github.com/spf13/cobra"

	"github.com/respd/respd/client"
)

func init() {
	cmd := newClientCmd(
		"ping [message]",
		"Ping the server",
		cobra.MaximumNArgs(1),
		func(c *client.Client, args []string) error {
			var message []byte
			if len(args) > 0 {
				message = []byte(args[0])
			}

			reply, err := c.Ping(message)
			if err != nil {
				return err
			}
			fmt.Println(string(reply))
			return nil
		},
	)
	cmd.Example = "# respd ping hello"
	rootCmd.AddCommand(cmd)
}
