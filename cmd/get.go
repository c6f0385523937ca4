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
		"get <key>",
		"Get the value of a key",
		cobra.ExactArgs(1),
		func(c *client.Client, args []string) error {
			value, err := c.Get(args[0])
			if err != nil {
				return err
			}
			if value == nil {
				fmt.Println("(nil)")
				return nil
			}
			fmt.Println(string(value))
			return nil
		},
	)
	cmd.Example = "# respd get foo"
	rootCmd.AddCommand(cmd)
}
