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

package bnsconf

import "github.com/kaleido-io/bns/internal/confutil"

const DefaultContractAddress = "0xbc192f3a81bca5b057928e16a6ade1c7abc67077"

type ClientConfig struct {
	Account         *string `json:"account"`
	ContractAddress *string `json:"contractAddress"`
	// gas limit for every write, where zero means estimate
	Gas     *uint64 `json:"gas"`
	ABIFile *string `json:"abiFile"`
}

var ClientDefaults = &ClientConfig{
	ContractAddress: confutil.P(DefaultContractAddress),
	Gas:             confutil.P(uint64(6700000)),
}
