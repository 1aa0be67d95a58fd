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

// Package bns is a client for the Better Name Service registry contract.
//
// Names are written "domain@tld" and "subdomain.domain@tld". The client
// parses and lower-cases them, then invokes the matching contract method
// either as an eth_call or as a transaction that is waited on until mined.
package bns

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/abi"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/kaleido-io/bns/internal/confutil"
	"github.com/kaleido-io/bns/internal/log"
	"github.com/kaleido-io/bns/internal/metrics"
	"github.com/kaleido-io/bns/internal/msgs"
	"github.com/kaleido-io/bns/pkg/bnsconf"
	"github.com/kaleido-io/bns/pkg/ethclient"
	"github.com/prometheus/client_golang/prometheus"
)

//go:embed abi/bns.json
var bundledABIJSON []byte

// BundledABI returns a fresh copy of the registry contract ABI shipped with the client
func BundledABI() abi.ABI {
	var a abi.ABI
	if err := json.Unmarshal(bundledABIJSON, &a); err != nil {
		panic(err)
	}
	return a
}

// TxOptions overrides per-transaction settings. A nil *TxOptions uses the client defaults.
type TxOptions struct {
	// gas limit, where zero means estimate
	Gas *uint64
}

type Option func(ctx context.Context, c *Client)

// WithMetrics registers operation counters and latency histograms with the registry
func WithMetrics(registry *prometheus.Registry) Option {
	return func(ctx context.Context, c *Client) {
		c.metrics = metrics.InitMetrics(ctx, registry)
	}
}

// Client holds only immutable references once built, and is safe for concurrent use
type Client struct {
	ec        ethclient.EthClient
	account   string
	from      *ethtypes.Address0xHex
	address   *ethtypes.Address0xHex
	gas       uint64
	functions [numOperations]ethclient.ABIFunctionClient
	metrics   metrics.ClientMetrics
}

// New binds a client to the registry contract at address. Every operation is
// resolved against contractABI up front, so a missing method fails here.
func New(ctx context.Context, ec ethclient.EthClient, account string, contractABI abi.ABI, address string, conf *bnsconf.ClientConfig, opts ...Option) (*Client, error) {
	if account == "" {
		return nil, i18n.NewError(ctx, msgs.MsgClientAccountMissing)
	}
	contractAddr, err := ethtypes.NewAddress(address)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgClientInvalidAddress, address)
	}
	from, err := ec.ResolveAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	abiClient, err := ec.ABI(ctx, contractABI)
	if err != nil {
		return nil, err
	}

	c := &Client{
		ec:      ec,
		account: account,
		from:    from,
		address: contractAddr,
		gas:     confutil.Uint64(conf.Gas, *bnsconf.ClientDefaults.Gas),
		metrics: metrics.Noop(),
	}
	for _, op := range Operations() {
		fn, err := abiClient.Function(ctx, op.Method())
		if err != nil {
			return nil, i18n.WrapError(ctx, err, msgs.MsgClientFunctionNotInABI, op.Method(), op)
		}
		info := op.Info()
		if got := len(fn.Definition().Inputs); got != len(info.Args) {
			return nil, i18n.NewError(ctx, msgs.MsgClientArgCountMismatch, op, len(info.Args), op.argList(), got)
		}
		c.functions[op] = fn
	}
	for _, opt := range opts {
		opt(ctx, c)
	}
	log.L(ctx).Infof("BNS client bound to %s as %s (%s)", contractAddr, account, from)
	return c, nil
}

// NewDefault uses the configured ABI file and contract address, falling back
// to the bundled ABI and the well known deployment.
func NewDefault(ctx context.Context, ec ethclient.EthClient, account string, conf *bnsconf.ClientConfig, opts ...Option) (*Client, error) {
	contractABI, err := loadABI(ctx, conf)
	if err != nil {
		return nil, err
	}
	address := confutil.StringNotEmpty(conf.ContractAddress, *bnsconf.ClientDefaults.ContractAddress)
	return New(ctx, ec, account, contractABI, address, conf, opts...)
}

func loadABI(ctx context.Context, conf *bnsconf.ClientConfig) (abi.ABI, error) {
	abiFile := confutil.StringOrEmpty(conf.ABIFile, "")
	if abiFile == "" {
		return BundledABI(), nil
	}
	b, err := os.ReadFile(abiFile)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgClientABIFileRead, abiFile)
	}
	var a abi.ABI
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgEthClientABIJson)
	}
	return a, nil
}

// Account is the caller identity transactions are sent from
func (c *Client) Account() string {
	return c.account
}

// From is the address the caller identity resolved to
func (c *Client) From() *ethtypes.Address0xHex {
	return c.from
}

func (c *Client) ContractAddress() *ethtypes.Address0xHex {
	return c.address
}

// startOp tags the context with a short correlation id, and returns a
// function to record the outcome
func (c *Client) startOp(ctx context.Context, op Operation) (context.Context, func(error)) {
	ctx = log.WithLogField(ctx, "op", uuid.New().String()[:8])
	start := time.Now()
	return ctx, func(err error) {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
			var re *RemoteExecutionError
			if errors.As(err, &re) {
				outcome = metrics.OutcomeRemoteError
			}
			log.L(ctx).Errorf("%s failed: %s", op, err)
		}
		c.metrics.RecordOperation(op.String(), outcome, time.Since(start))
	}
}

// outputs are read by position, so named and unnamed ABI outputs decode the same way
func positionalOutputs() *abi.Serializer {
	return ethclient.StandardABISerializer().SetFormattingMode(abi.FormatAsFlatArrays)
}

// call is a single eth_call with no retry. The first output is unmarshalled into result.
func (c *Client) call(ctx context.Context, op Operation, result any, args ...any) (err error) {
	if !op.Valid() {
		return i18n.NewError(ctx, msgs.MsgClientUnknownOperation, int(op))
	}
	ctx, done := c.startOp(ctx, op)
	defer func() { done(err) }()

	if log.IsTraceEnabled() {
		log.L(ctx).Tracef("%s -> eth_call %s %v", op, op.Method(), args)
	} else {
		log.L(ctx).Debugf("%s -> eth_call %s", op, op.Method())
	}
	var output []json.RawMessage
	err = c.functions[op].R(ctx).
		Signer(c.account).
		To(c.address).
		Input(args).
		Serializer(positionalOutputs()).
		Output(&output).
		Call()
	if err != nil {
		return normalizeError(ctx, op.Method(), err)
	}
	if len(output) == 0 {
		return i18n.NewError(ctx, msgs.MsgClientDecodeResult, op.Method())
	}
	if err = json.Unmarshal(output[0], result); err != nil {
		return i18n.WrapError(ctx, err, msgs.MsgClientDecodeResult, op.Method())
	}
	return nil
}

func (c *Client) gasLimit(opts *TxOptions) uint64 {
	if opts != nil && opts.Gas != nil {
		return *opts.Gas
	}
	return c.gas
}

// sendTransaction submits a transaction and waits for it to be mined. A mined
// transaction that reverted is returned as a RemoteExecutionError.
func (c *Client) sendTransaction(ctx context.Context, op Operation, value *big.Int, opts *TxOptions, args ...any) (receipt *ethclient.TransactionReceipt, err error) {
	if !op.Valid() {
		return nil, i18n.NewError(ctx, msgs.MsgClientUnknownOperation, int(op))
	}
	ctx, done := c.startOp(ctx, op)
	defer func() { done(err) }()

	req := c.functions[op].R(ctx).
		Signer(c.account).
		To(c.address).
		Input(args)
	if value != nil {
		req = req.Value(value)
	}
	if gas := c.gasLimit(opts); gas > 0 {
		req = req.GasLimit(new(big.Int).SetUint64(gas))
	}
	if log.IsTraceEnabled() {
		log.L(ctx).Tracef("%s -> transaction %s %v", op, op.Method(), args)
	} else {
		log.L(ctx).Debugf("%s -> transaction %s", op, op.Method())
	}
	receipt, err = req.SendAndWait()
	if err != nil {
		return nil, normalizeError(ctx, op.Method(), err)
	}
	log.L(ctx).Debugf("%s mined %s", op, receipt.TransactionHash)
	if !receipt.Success {
		return nil, revertedError(ctx, op.Method(), receipt.TransactionHash.String(), receipt.ErrorMessage)
	}
	return receipt, nil
}

func (c *Client) checkAddress(ctx context.Context, address string) (string, error) {
	addr, err := ethtypes.NewAddress(address)
	if err != nil {
		return "", i18n.WrapError(ctx, err, msgs.MsgClientInvalidAddress, address)
	}
	return addr.String(), nil
}
