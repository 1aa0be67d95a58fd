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
	"encoding/json"
	"fmt"
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/hyperledger/firefly-signer/pkg/ethsigner"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/kaleido-io/bns/internal/confutil"
	"github.com/kaleido-io/bns/internal/rpctest"
	"github.com/kaleido-io/bns/pkg/bnsconf"
	"github.com/kaleido-io/bns/pkg/signer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testChainID    = int64(1337)
	testKey        = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testKeyAddress = "0x2c7536e3605d9c16a7a3d7b1898e529396a65c23"
)

func fastReceiptPoll() bnsconf.RetryConfigWithMax {
	return bnsconf.RetryConfigWithMax{
		RetryConfig: bnsconf.RetryConfig{
			InitialDelay: confutil.P("1ms"),
			MaxDelay:     confutil.P("1ms"),
		},
		MaxAttempts: confutil.P(5),
	}
}

func newTestKeyManager(t *testing.T) KeyManager {
	km, err := signer.NewKeyManager(context.Background(), &bnsconf.SignerConfig{
		Keys: map[string]string{"deployer": testKey},
	})
	require.NoError(t, err)
	return km
}

func newTestClient(t *testing.T, keymgr KeyManager, conf *bnsconf.EthClientConfig) (context.Context, *ethClient, *rpctest.Server) {
	ctx := context.Background()
	node := rpctest.NewServer(t, testChainID)
	if conf == nil {
		conf = &bnsconf.EthClientConfig{}
	}
	conf.HTTP.URL = node.HTTPURL()
	conf.ReceiptPoll = fastReceiptPoll()
	ec, err := NewEthClient(ctx, keymgr, conf)
	require.NoError(t, err)
	t.Cleanup(ec.Close)
	return ctx, ec.(*ethClient), node
}

func TestNewEthClientHTTP(t *testing.T) {
	_, ec, node := newTestClient(t, nil, nil)
	assert.Equal(t, testChainID, ec.ChainID())
	assert.Equal(t, EIP1559, ec.txVersion)
	assert.Nil(t, ec.keymgr)
	assert.Equal(t, 1, node.CallCount("eth_chainId"))
}

func TestNewEthClientWS(t *testing.T) {
	ctx := context.Background()
	node := rpctest.NewServer(t, testChainID)
	ec, err := NewEthClient(ctx, newTestKeyManager(t), &bnsconf.EthClientConfig{
		WS: bnsconf.WSClientConfig{
			HTTPClientConfig: bnsconf.HTTPClientConfig{URL: node.WSURL()},
		},
		TXVersion: confutil.P("LEGACY_EIP155"),
	})
	require.NoError(t, err)
	defer ec.Close()
	assert.Equal(t, testChainID, ec.ChainID())
	assert.Equal(t, LEGACY_EIP155, ec.(*ethClient).txVersion)
	assert.NotNil(t, ec.(*ethClient).keymgr)
}

func TestNewEthClientNoURL(t *testing.T) {
	_, err := NewEthClient(context.Background(), nil, &bnsconf.EthClientConfig{})
	assert.Regexp(t, "BN010209", err)
}

func TestNewEthClientBadURLs(t *testing.T) {
	_, err := NewEthClient(context.Background(), nil, &bnsconf.EthClientConfig{
		HTTP: bnsconf.HTTPClientConfig{URL: "ws://wrong"},
	})
	assert.Regexp(t, "BN010501", err)

	_, err = NewEthClient(context.Background(), nil, &bnsconf.EthClientConfig{
		WS: bnsconf.WSClientConfig{HTTPClientConfig: bnsconf.HTTPClientConfig{URL: "http://wrong"}},
	})
	assert.Regexp(t, "BN010500", err)
}

func TestNewEthClientChainIDFail(t *testing.T) {
	node := rpctest.NewServer(t, testChainID)
	node.On("eth_chainId", func(_ []json.RawMessage) (any, error) {
		return nil, fmt.Errorf("pop")
	})
	_, err := NewEthClient(context.Background(), nil, &bnsconf.EthClientConfig{
		HTTP: bnsconf.HTTPClientConfig{URL: node.HTTPURL()},
	})
	assert.Regexp(t, "BN010208.*pop", err)
}

func TestNewEthClientBadTXVersion(t *testing.T) {
	node := rpctest.NewServer(t, testChainID)
	_, err := NewEthClient(context.Background(), nil, &bnsconf.EthClientConfig{
		HTTP:      bnsconf.HTTPClientConfig{URL: node.HTTPURL()},
		TXVersion: confutil.P("eip9999"),
	})
	assert.Regexp(t, "BN010207", err)
}

func TestNewEthClientBadGasPrice(t *testing.T) {
	node := rpctest.NewServer(t, testChainID)
	_, err := NewEthClient(context.Background(), nil, &bnsconf.EthClientConfig{
		HTTP:     bnsconf.HTTPClientConfig{URL: node.HTTPURL()},
		GasPrice: confutil.P("lots"),
	})
	assert.Regexp(t, "BN010214", err)
}

func TestResolveAccountNoKeyManager(t *testing.T) {
	ctx, ec, _ := newTestClient(t, nil, nil)

	addr, err := ec.ResolveAccount(ctx, "0x2C7536E3605D9C16a7a3D7b1898e529396a65c23")
	require.NoError(t, err)
	assert.Equal(t, testKeyAddress, addr.String())

	_, err = ec.ResolveAccount(ctx, "deployer")
	assert.Regexp(t, "BN010213", err)

	_, err = ec.BuildRawTransaction(ctx, EIP1559, "deployer", &ethsigner.Transaction{})
	assert.Regexp(t, "BN010213", err)
}

func TestResolveAccountKeyManager(t *testing.T) {
	ctx, ec, _ := newTestClient(t, newTestKeyManager(t), nil)

	addr, err := ec.ResolveAccount(ctx, "deployer")
	require.NoError(t, err)
	assert.Equal(t, testKeyAddress, addr.String())
}

func testBuildRawTransaction(t *testing.T, txVersion EthTXVersion, gasPrice *string) {
	ctx, ec, node := newTestClient(t, newTestKeyManager(t), &bnsconf.EthClientConfig{
		GasPrice: gasPrice,
	})
	node.On("eth_getTransactionCount", func(params []json.RawMessage) (any, error) {
		var addr, block string
		node.Param(params, 0, &addr)
		node.Param(params, 1, &block)
		assert.Equal(t, testKeyAddress, addr)
		assert.Equal(t, "pending", block)
		return "0x5", nil
	})
	node.On("eth_estimateGas", func(params []json.RawMessage) (any, error) {
		return "0x5208", nil
	})
	node.On("eth_gasPrice", func(params []json.RawMessage) (any, error) {
		return "0x3b9aca00", nil
	})

	to := ethtypes.MustNewAddress("0xbc192f3a81bca5b057928e16a6ade1c7abc67077")
	rawTX, err := ec.BuildRawTransaction(ctx, txVersion, "deployer", &ethsigner.Transaction{
		To:    to,
		Value: ethtypes.NewHexInteger64(100),
		Data:  ethtypes.MustNewHexBytes0xPrefix("0xfeedbeef"),
	})
	require.NoError(t, err)

	from, decoded, err := ethsigner.RecoverRawTransaction(ctx, rawTX, ec.ChainID())
	require.NoError(t, err)
	assert.Equal(t, testKeyAddress, from.String())
	assert.Equal(t, int64(5), decoded.Transaction.Nonce.BigInt().Int64())
	assert.Equal(t, int64(31500), decoded.Transaction.GasLimit.BigInt().Int64())
	assert.Equal(t, int64(100), decoded.Transaction.Value.BigInt().Int64())
	assert.Equal(t, "0xfeedbeef", decoded.Transaction.Data.String())
	if gasPrice != nil {
		assert.Equal(t, 0, node.CallCount("eth_gasPrice"))
	} else {
		assert.Equal(t, 1, node.CallCount("eth_gasPrice"))
	}
}

func TestBuildRawTransactionEIP1559(t *testing.T) {
	testBuildRawTransaction(t, EIP1559, nil)
}

func TestBuildRawTransactionLegacyEIP155(t *testing.T) {
	testBuildRawTransaction(t, LEGACY_EIP155, confutil.P("20000000000"))
}

func TestBuildRawTransactionLegacyOriginal(t *testing.T) {
	testBuildRawTransaction(t, LEGACY_ORIGINAL, confutil.P("0x4a817c800"))
}

func TestBuildRawTransactionBadVersion(t *testing.T) {
	ctx, ec, _ := newTestClient(t, newTestKeyManager(t), nil)
	_, err := ec.BuildRawTransaction(ctx, "wrong", "deployer", &ethsigner.Transaction{
		Nonce:    ethtypes.NewHexInteger64(0),
		GasLimit: ethtypes.NewHexInteger64(21000),
		GasPrice: ethtypes.NewHexInteger64(1),
	})
	assert.Regexp(t, "BN010207", err)
}

func TestBuildRawTransactionFailures(t *testing.T) {
	ctx, ec, node := newTestClient(t, newTestKeyManager(t), nil)

	_, err := ec.BuildRawTransaction(ctx, EIP1559, "unknown", &ethsigner.Transaction{})
	assert.Regexp(t, "BN010300", err)

	node.On("eth_getTransactionCount", func(_ []json.RawMessage) (any, error) {
		return nil, fmt.Errorf("nonce pop")
	})
	_, err = ec.BuildRawTransaction(ctx, EIP1559, "deployer", &ethsigner.Transaction{})
	assert.Regexp(t, "nonce pop", err)

	node.On("eth_estimateGas", func(_ []json.RawMessage) (any, error) {
		return nil, fmt.Errorf("execution reverted: not allowed")
	})
	_, err = ec.BuildRawTransaction(ctx, EIP1559, "deployer", &ethsigner.Transaction{
		Nonce: ethtypes.NewHexInteger64(0),
	})
	assert.Regexp(t, "execution reverted: not allowed", err)

	node.On("eth_gasPrice", func(_ []json.RawMessage) (any, error) {
		return nil, fmt.Errorf("price pop")
	})
	_, err = ec.BuildRawTransaction(ctx, EIP1559, "deployer", &ethsigner.Transaction{
		Nonce:    ethtypes.NewHexInteger64(0),
		GasLimit: ethtypes.NewHexInteger64(21000),
	})
	assert.Regexp(t, "price pop", err)
}

func TestSendRawTransaction(t *testing.T) {
	ctx, ec, node := newTestClient(t, newTestKeyManager(t), nil)
	rawTX, err := ec.BuildRawTransaction(ctx, EIP1559, "deployer", &ethsigner.Transaction{
		Nonce:    ethtypes.NewHexInteger64(0),
		GasLimit: ethtypes.NewHexInteger64(21000),
		GasPrice: ethtypes.NewHexInteger64(1),
	})
	require.NoError(t, err)

	node.On("eth_sendRawTransaction", func(params []json.RawMessage) (any, error) {
		var sent ethtypes.HexBytes0xPrefix
		node.Param(params, 0, &sent)
		assert.Equal(t, rawTX.String(), sent.String())
		return "0x1234", nil
	})
	txHash, err := ec.SendRawTransaction(ctx, rawTX)
	require.NoError(t, err)
	assert.Equal(t, "0x1234", txHash.String())

	node.On("eth_sendRawTransaction", func(params []json.RawMessage) (any, error) {
		return nil, fmt.Errorf("nonce too low")
	})
	_, err = ec.SendRawTransaction(ctx, rawTX)
	assert.Regexp(t, "nonce too low", err)

	_, err = ec.SendRawTransaction(ctx, ethtypes.MustNewHexBytes0xPrefix("0xfeedbeef"))
	assert.Regexp(t, "nonce too low", err)
}

func TestSendTransaction(t *testing.T) {
	ctx, ec, node := newTestClient(t, nil, nil)

	_, err := ec.SendTransaction(ctx, &ethsigner.Transaction{})
	assert.Regexp(t, "BN010204", err)

	node.On("eth_sendTransaction", func(params []json.RawMessage) (any, error) {
		var tx ethsigner.Transaction
		node.Param(params, 0, &tx)
		assert.JSONEq(t, `"`+testKeyAddress+`"`, string(tx.From))
		return nil, &rpctest.RPCError{Code: -32000, Message: "VM Exception while processing transaction: revert nope"}
	})
	_, err = ec.SendTransaction(ctx, &ethsigner.Transaction{
		From: json.RawMessage(`"` + testKeyAddress + `"`),
	})
	assert.Regexp(t, "VM Exception while processing transaction: revert nope", err)
}

func receiptJSON(status string, revert ethtypes.HexBytes0xPrefix) map[string]any {
	r := map[string]any{
		"transactionHash":  "0x1234",
		"blockHash":        "0xabcd",
		"blockNumber":      "0x10",
		"transactionIndex": "0x2",
		"from":             testKeyAddress,
		"to":               "0xbc192f3a81bca5b057928e16a6ade1c7abc67077",
		"gasUsed":          "0x5208",
		"status":           status,
		"logs": []map[string]any{{
			"logIndex": "0x0",
			"address":  "0xbc192f3a81bca5b057928e16a6ade1c7abc67077",
			"data":     "0x",
			"topics":   []string{"0x01"},
		}},
	}
	if revert != nil {
		r["revertReason"] = revert.String()
	}
	return r
}

func TestWaitForReceiptSuccess(t *testing.T) {
	ctx, ec, node := newTestClient(t, nil, nil)
	var calls atomic.Int32
	node.On("eth_getTransactionReceipt", func(params []json.RawMessage) (any, error) {
		var txHash string
		node.Param(params, 0, &txHash)
		assert.Equal(t, "0x1234", txHash)
		if calls.Add(1) < 3 {
			return nil, nil
		}
		return receiptJSON("0x1", nil), nil
	})

	receipt, err := ec.WaitForReceipt(ctx, "0x1234")
	require.NoError(t, err)
	assert.True(t, receipt.Success)
	assert.Equal(t, "000000000016/000002", receipt.ProtocolID)
	assert.Equal(t, int64(21000), receipt.GasUsed.Int().Int64())
	assert.Len(t, receipt.Logs, 1)
	assert.Empty(t, receipt.ErrorMessage)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWaitForReceiptReverted(t *testing.T) {
	ctx, ec, node := newTestClient(t, nil, nil)
	revert := rpctest.RevertData(t, "Domain already registered")
	node.On("eth_getTransactionReceipt", func(params []json.RawMessage) (any, error) {
		return receiptJSON("0x0", revert), nil
	})

	receipt, err := ec.WaitForReceipt(ctx, "0x1234")
	require.NoError(t, err)
	assert.False(t, receipt.Success)
	assert.Equal(t, "Domain already registered", receipt.ErrorMessage)
}

func TestReceiptErrorInfo(t *testing.T) {
	ctx, ec, _ := newTestClient(t, nil, nil)

	assert.Regexp(t, "BN010212", ec.getErrorInfo(ctx, nil))
	custom := ethtypes.MustNewHexBytes0xPrefix("0xfeedbeef00")
	assert.Regexp(t, "BN010211.*0xfeedbeef00", ec.getErrorInfo(ctx, &custom))
}

func TestWaitForReceiptTimeout(t *testing.T) {
	ctx, ec, node := newTestClient(t, nil, nil)
	node.On("eth_getTransactionReceipt", func(params []json.RawMessage) (any, error) {
		return nil, nil
	})
	_, err := ec.WaitForReceipt(ctx, "0x1234")
	assert.Regexp(t, "BN010210.*0x1234", err)
	assert.Equal(t, 5, node.CallCount("eth_getTransactionReceipt"))
}

func TestGetReceiptFail(t *testing.T) {
	ctx, ec, node := newTestClient(t, nil, nil)
	node.On("eth_getTransactionReceipt", func(params []json.RawMessage) (any, error) {
		return nil, fmt.Errorf("pop")
	})
	_, err := ec.GetTransactionReceipt(ctx, "0x1234")
	assert.Regexp(t, "pop", err)
}

func TestWaitForReceiptRequestFailNotRetried(t *testing.T) {
	ctx, ec, node := newTestClient(t, nil, nil)
	node.On("eth_getTransactionReceipt", func(params []json.RawMessage) (any, error) {
		return nil, fmt.Errorf("connection lost")
	})
	_, err := ec.WaitForReceipt(ctx, "0x1234")
	assert.Regexp(t, "connection lost", err)
	assert.Equal(t, 1, node.CallCount("eth_getTransactionReceipt"))
}

func TestGasPriceFromNode(t *testing.T) {
	ctx, ec, node := newTestClient(t, nil, nil)
	node.On("eth_gasPrice", func(params []json.RawMessage) (any, error) {
		return "0x64", nil
	})
	gp, err := ec.GasPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), gp.BigInt())
}
