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

package rpcclient

import (
	"context"
	"net/url"

	"github.com/go-resty/resty/v2"
	"github.com/hyperledger/firefly-common/pkg/ffresty"
	"github.com/hyperledger/firefly-common/pkg/fftypes"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/wsclient"
	"github.com/kaleido-io/bns/internal/confutil"
	"github.com/kaleido-io/bns/internal/msgs"
	"github.com/kaleido-io/bns/internal/tlsconf"
	"github.com/kaleido-io/bns/pkg/bnsconf"
)

func parseURL(ctx context.Context, rawURL string, msg i18n.ErrorMessageKey, schemes ...string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msg, rawURL)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return u, nil
		}
	}
	return nil, i18n.NewError(ctx, msg, rawURL)
}

func ParseWSConfig(ctx context.Context, config *bnsconf.WSClientConfig) (*wsclient.WSConfig, error) {
	u, err := parseURL(ctx, config.URL, msgs.MsgRPCClientInvalidWebSocketURL, "ws", "wss")
	if err != nil {
		return nil, err
	}
	if u.Scheme == "wss" {
		config.TLS.Enabled = true
	}
	tlsConfig, err := tlsconf.BuildClientTLSConfig(ctx, &config.TLS)
	if err != nil {
		return nil, err
	}
	def := bnsconf.DefaultWSConfig
	return &wsclient.WSConfig{
		WebSocketURL:           u.String(),
		HTTPHeaders:            config.HTTPHeaders,
		ReadBufferSize:         int(confutil.ByteSize(config.ReadBufferSize, 0, *def.ReadBufferSize)),
		WriteBufferSize:        int(confutil.ByteSize(config.WriteBufferSize, 0, *def.WriteBufferSize)),
		ConnectionTimeout:      confutil.DurationMin(config.ConnectionTimeout, 0, *def.ConnectionTimeout),
		InitialDelay:           confutil.DurationMin(config.ConnectRetry.InitialDelay, 0, *def.ConnectRetry.InitialDelay),
		MaximumDelay:           confutil.DurationMin(config.ConnectRetry.MaxDelay, 0, *def.ConnectRetry.MaxDelay),
		HeartbeatInterval:      confutil.DurationMin(config.HeartbeatInterval, 0, *def.HeartbeatInterval),
		AuthUsername:           config.Auth.Username,
		AuthPassword:           config.Auth.Password,
		TLSClientConfig:        tlsConfig,
		InitialConnectAttempts: confutil.IntMin(config.InitialConnectAttempts, 0, *def.InitialConnectAttempts),
	}, nil
}

func ParseHTTPConfig(ctx context.Context, config *bnsconf.HTTPClientConfig) (*resty.Client, error) {
	u, err := parseURL(ctx, config.URL, msgs.MsgRPCClientInvalidHTTPURL, "http", "https")
	if err != nil {
		return nil, err
	}
	if u.Scheme == "https" {
		config.TLS.Enabled = true
	}
	tlsConfig, err := tlsconf.BuildClientTLSConfig(ctx, &config.TLS)
	if err != nil {
		return nil, err
	}
	def := bnsconf.DefaultHTTPConfig
	return ffresty.NewWithConfig(ctx, ffresty.Config{
		URL: u.String(),
		HTTPConfig: ffresty.HTTPConfig{
			HTTPHeaders:           config.HTTPHeaders,
			AuthUsername:          config.Auth.Username,
			AuthPassword:          config.Auth.Password,
			TLSClientConfig:       tlsConfig,
			HTTPRequestTimeout:    fftypes.FFDuration(confutil.DurationMin(config.RequestTimeout, 0, *def.RequestTimeout)),
			HTTPConnectionTimeout: fftypes.FFDuration(confutil.DurationMin(config.ConnectionTimeout, 0, *def.ConnectionTimeout)),
		},
	}), nil
}
