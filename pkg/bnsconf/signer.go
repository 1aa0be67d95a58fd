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

// SignerConfig configures local signing of transactions. With no keys and
// no mnemonic, transactions are submitted unsigned for the node to sign.
type SignerConfig struct {
	// hex encoded secp256k1 private keys, by name
	Keys map[string]string `json:"keys"`
	// BIP-39 mnemonic for HD derivation
	Mnemonic     *string `json:"mnemonic"`
	HDPathPrefix *string `json:"hdPathPrefix"`
	// how many HD indexes to scan when resolving a bare address
	HDScanDepth *int `json:"hdScanDepth"`
}

var SignerDefaults = &SignerConfig{
	HDPathPrefix: confutil.P("m/44'/60'/0'/0"),
	HDScanDepth:  confutil.P(10),
}

func (sc *SignerConfig) Enabled() bool {
	return len(sc.Keys) > 0 || (sc.Mnemonic != nil && *sc.Mnemonic != "")
}
