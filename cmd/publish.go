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
		"publish <channel> <message>",
		"Publish a message to a channel",
		cobra.ExactArgs(2),
		func(c *client.Client, args []string) error {
			if _, err := c.Publish(args[0], []byte(args[1])); err != nil {
				return err
			}
			fmt.Println("Publish OK")
			return nil
		},
	)
	cmd.Example = "# respd publish hello world"
	rootCmd.AddCommand(cmd)
}
