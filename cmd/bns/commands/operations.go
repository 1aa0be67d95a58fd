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
	"github.com/kaleido-io/bns/pkg/bns"
	"github.com/spf13/cobra"
)

func (c *cli) operationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "operations",
		Short:       "List the contract methods the client invokes",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{offlineAnnotation: "true"},
		RunE: func(_ *cobra.Command, _ []string) error {
			ops := bns.Operations()
			infos := make([]bns.OperationInfo, len(ops))
			for i, op := range ops {
				infos[i] = op.Info()
			}
			return c.print(infos)
		},
	}
}
