/*
 * Copyright © 2025 Kaleido, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
 * an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
 * specific language governing permissions and limitations under the License.
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package ethclient

import (
	"context"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/rpcbackend"
	"github.com/kaleido-io/bns/internal/log"
	"github.com/kaleido-io/bns/internal/msgs"
	"github.com/kaleido-io/bns/internal/rpcclient"
	"github.com/kaleido-io/bns/pkg/bnsconf"
)

// NewEthClient connects over HTTP when an HTTP URL is configured, and
// otherwise over a WebSocket. Pass a nil keymgr to have the node sign.
func NewEthClient(ctx context.Context, keymgr KeyManager, conf *bnsconf.EthClientConfig) (EthClient, error) {
	switch {
	case conf.HTTP.URL != "":
		httpConf, err := rpcclient.ParseHTTPConfig(ctx, &conf.HTTP)
		if err != nil {
			return nil, err
		}
		log.L(ctx).Debugf("Connecting to %s over HTTP", conf.HTTP.URL)
		return WrapRPCClient(ctx, keymgr, rpcbackend.NewRPCClient(httpConf), conf)
	case conf.WS.URL != "":
		wsConf, err := rpcclient.ParseWSConfig(ctx, &conf.WS)
		if err != nil {
			return nil, err
		}
		wsRPC := rpcbackend.NewWSRPCClient(wsConf)
		if err := wsRPC.Connect(ctx); err != nil {
			return nil, err
		}
		log.L(ctx).Debugf("Connected to %s over WebSockets", conf.WS.URL)
		ec, err := WrapRPCClient(ctx, keymgr, wsRPC, conf)
		if err != nil {
			wsRPC.Close()
			return nil, err
		}
		return ec, nil
	default:
		return nil, i18n.NewError(ctx, msgs.MsgEthClientURLMissing)
	}
}
