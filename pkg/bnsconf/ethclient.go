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

type EthClientConfig struct {
	HTTP              HTTPClientConfig   `json:"http"`
	WS                WSClientConfig     `json:"ws"`
	GasEstimateFactor *float64           `json:"gasEstimateFactor"`
	TXVersion         *string            `json:"txVersion"`
	GasPrice          *string            `json:"gasPrice"`
	ReceiptPoll       RetryConfigWithMax `json:"receiptPoll"`
}

var EthClientDefaults = &EthClientConfig{
	GasEstimateFactor: confutil.P(1.5),
	TXVersion:         confutil.P("eip1559"),
	ReceiptPoll: RetryConfigWithMax{
		RetryConfig: RetryConfig{
			InitialDelay: confutil.P("250ms"),
			MaxDelay:     confutil.P("2s"),
			Factor:       confutil.P(2.0),
		},
		MaxAttempts: confutil.P(60),
	},
}
