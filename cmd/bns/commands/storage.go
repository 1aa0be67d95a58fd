// Copyright © 2025 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"context"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/kaleido-io/bns/internal/msgs"
	"github.com/kaleido-io/bns/pkg/bns"
	"github.com/spf13/cobra"
)

func (c *cli) storageCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "storage", Short: "Key/value storage of a domain"}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <domain> <key>...",
			Short: "Read one or more storage keys",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				keys := args[1:]
				values, err := c.client.GetStorage(cmd.Context(), args[0], keys...)
				if err != nil {
					return err
				}
				result := make([]bns.KeyValue, len(keys))
				for i, k := range keys {
					result[i] = bns.KeyValue{Key: k, Value: values[i]}
				}
				return c.print(result)
			},
		},
		&cobra.Command{
			Use:   "set <domain> <key=value>...",
			Short: "Write one or more storage keys",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				pairs, err := parseKeyValues(cmd.Context(), args[1:])
				if err != nil {
					return err
				}
				receipt, err := c.client.SetStorage(cmd.Context(), args[0], pairs, nil)
				if err != nil {
					return err
				}
				return c.print(receipt)
			},
		},
	)
	return cmd
}

func parseKeyValues(ctx context.Context, entries []string) ([]bns.KeyValue, error) {
	pairs := make([]bns.KeyValue, len(entries))
	for i, entry := range entries {
		k, v, ok := strings.Cut(entry, "=")
		if !ok || k == "" {
			return nil, i18n.NewError(ctx, msgs.MsgCLIInvalidKeyValue, entry)
		}
		pairs[i] = bns.KeyValue{Key: k, Value: v}
	}
	return pairs, nil
}
