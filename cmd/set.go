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
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/respd/respd/client"
)

func init() {
	cmd := newClientCmd(
		"set <key> <value> [ttl-ms]",
		"Set a key to a value, optionally expiring in ttl-ms milliseconds",
		cobra.RangeArgs(2, 3),
		func(c *client.Client, args []string) error {
			if len(args) == 3 {
				ms, err := strconv.ParseUint(args[2], 10, 63)
				if err != nil {
					return fmt.Errorf("invalid ttl %q: %v", args[2], err)
				}
				if err := c.SetExpires(args[0], []byte(args[1]), time.Duration(ms)*time.Millisecond); err != nil {
					return err
				}
			} else {
				if err := c.Set(args[0], []byte(args[1])); err != nil {
					return err
				}
			}
			fmt.Println("OK")
			return nil
		},
	)
	cmd.Example = "# respd set foo bar 5000"
	rootCmd.AddCommand(cmd)
}
