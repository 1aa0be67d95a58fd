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
	"bytes"
	"context"
	"encoding/json"
	"math/big"

	"github.com/hyperledger/firefly-common/pkg/fftypes"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/abi"
	"github.com/hyperledger/firefly-signer/pkg/ethsigner"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/hyperledger/firefly-signer/pkg/rpcbackend"
	"github.com/hyperledger/firefly-signer/pkg/secp256k1"
	"github.com/kaleido-io/bns/internal/confutil"
	"github.com/kaleido-io/bns/internal/log"
	"github.com/kaleido-io/bns/internal/msgs"
	"github.com/kaleido-io/bns/internal/retry"
	"github.com/kaleido-io/bns/pkg/bnsconf"
	"golang.org/x/crypto/sha3"
)

// EthClient is a thin client to an Ethereum JSON/RPC node, for contract
// calls and transaction submission
type EthClient interface {
	Close()
	ABI(ctx context.Context, a abi.ABI) (ABIClient, error)
	ChainID() int64

	// Below are raw functions that the ABI() above provides wrappers for
	ResolveAccount(ctx context.Context, identifier string) (*ethtypes.Address0xHex, error)
	GasPrice(ctx context.Context) (gasPrice *ethtypes.HexInteger, err error)
	GasEstimate(ctx context.Context, tx *ethsigner.Transaction) (gasLimit *ethtypes.HexInteger, err error)
	GetTransactionCount(ctx context.Context, fromAddr string) (transactionCount *ethtypes.HexUint64, err error)
	GetTransactionReceipt(ctx context.Context, txHash string) (*TransactionReceipt, error)
	WaitForReceipt(ctx context.Context, txHash string) (*TransactionReceipt, error)
	CallContract(ctx context.Context, from *ethtypes.Address0xHex, tx *ethsigner.Transaction, block string) (data ethtypes.HexBytes0xPrefix, err error)
	BuildRawTransaction(ctx context.Context, txVersion EthTXVersion, from string, tx *ethsigner.Transaction) (ethtypes.HexBytes0xPrefix, error)
	SendRawTransaction(ctx context.Context, rawTX ethtypes.HexBytes0xPrefix) (ethtypes.HexBytes0xPrefix, error)
	SendTransaction(ctx context.Context, tx *ethsigner.Transaction) (ethtypes.HexBytes0xPrefix, error)
}

// KeyManager signs locally. When none is configured, transactions are
// sent with eth_sendTransaction for the node to sign.
type KeyManager interface {
	ResolveKey(ctx context.Context, identifier string) (keyHandle string, addr *ethtypes.Address0xHex, err error)
	Sign(ctx context.Context, keyHandle string, hash []byte) (*secp256k1.SignatureData, error)
}

type ethClient struct {
	chainID           int64
	gasEstimateFactor float64
	gasPrice          *big.Int
	txVersion         EthTXVersion
	receiptPoll       *retry.Retry
	rpc               rpcbackend.RPC
	keymgr            KeyManager
}

// WrapRPCClient builds a client over an existing RPC connection, querying the chain ID
func WrapRPCClient(ctx context.Context, keymgr KeyManager, rpc rpcbackend.RPC, conf *bnsconf.EthClientConfig) (EthClient, error) {
	txVersion, err := parseTXVersion(ctx, confutil.StringNotEmpty(conf.TXVersion, *bnsconf.EthClientDefaults.TXVersion))
	if err != nil {
		return nil, err
	}
	ec := &ethClient{
		keymgr:            keymgr,
		rpc:               rpc,
		txVersion:         txVersion,
		gasEstimateFactor: confutil.Float64Min(conf.GasEstimateFactor, 1.0, *bnsconf.EthClientDefaults.GasEstimateFactor),
		receiptPoll:       retry.NewRetryLimited(&conf.ReceiptPoll, &bnsconf.EthClientDefaults.ReceiptPoll),
	}
	if conf.GasPrice != nil && *conf.GasPrice != "" {
		if ec.gasPrice = confutil.BigIntOrNil(conf.GasPrice); ec.gasPrice == nil {
			return nil, i18n.NewError(ctx, msgs.MsgEthClientInvalidGasPrice, *conf.GasPrice)
		}
	}
	if err := ec.setupChainID(ctx); err != nil {
		return nil, err
	}
	return ec, nil
}

func (ec *ethClient) Close() {
	if wsRPC, isWS := ec.rpc.(rpcbackend.WebSocketRPCClient); isWS {
		wsRPC.Close()
	}
}

func (ec *ethClient) ChainID() int64 {
	return ec.chainID
}

func (ec *ethClient) setupChainID(ctx context.Context) error {
	var chainID ethtypes.HexUint64
	if rpcErr := ec.rpc.CallRPC(ctx, &chainID, "eth_chainId"); rpcErr != nil {
		log.L(ctx).Errorf("eth_chainId failed: %+v", rpcErr)
		return i18n.WrapError(ctx, rpcErr.Error(), msgs.MsgEthClientChainIDFailed)
	}
	ec.chainID = int64(chainID.Uint64())
	return nil
}

// ResolveAccount maps a caller identifier to an address. Without a key
// manager only literal addresses are accepted.
func (ec *ethClient) ResolveAccount(ctx context.Context, identifier string) (*ethtypes.Address0xHex, error) {
	if ec.keymgr != nil {
		_, addr, err := ec.keymgr.ResolveKey(ctx, identifier)
		return addr, err
	}
	addr, err := ethtypes.NewAddress(identifier)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgEthClientNoKeyManager, identifier)
	}
	return addr, nil
}

func jsonAddress(addr *ethtypes.Address0xHex) json.RawMessage {
	b, _ := json.Marshal(addr.String())
	return b
}

func (ec *ethClient) CallContract(ctx context.Context, from *ethtypes.Address0xHex, tx *ethsigner.Transaction, block string) (data ethtypes.HexBytes0xPrefix, err error) {
	if from != nil {
		tx.From = jsonAddress(from)
	}
	if rpcErr := ec.rpc.CallRPC(ctx, &data, "eth_call", tx, block); rpcErr != nil {
		log.L(ctx).Errorf("eth_call failed: %+v", rpcErr)
		return nil, rpcErr.Error()
	}
	return data, nil
}

func (ec *ethClient) GasPrice(ctx context.Context) (*ethtypes.HexInteger, error) {
	if ec.gasPrice != nil {
		return (*ethtypes.HexInteger)(ec.gasPrice), nil
	}
	var gasPrice ethtypes.HexInteger
	if rpcErr := ec.rpc.CallRPC(ctx, &gasPrice, "eth_gasPrice"); rpcErr != nil {
		log.L(ctx).Errorf("eth_gasPrice failed: %+v", rpcErr)
		return nil, rpcErr.Error()
	}
	return &gasPrice, nil
}

func (ec *ethClient) GasEstimate(ctx context.Context, tx *ethsigner.Transaction) (*ethtypes.HexInteger, error) {
	var gasEstimate ethtypes.HexInteger
	if rpcErr := ec.rpc.CallRPC(ctx, &gasEstimate, "eth_estimateGas", tx); rpcErr != nil {
		log.L(ctx).Errorf("eth_estimateGas failed: %+v", rpcErr)
		return nil, rpcErr.Error()
	}
	return &gasEstimate, nil
}

func (ec *ethClient) GetTransactionCount(ctx context.Context, fromAddr string) (*ethtypes.HexUint64, error) {
	var transactionCount ethtypes.HexUint64
	if rpcErr := ec.rpc.CallRPC(ctx, &transactionCount, "eth_getTransactionCount", fromAddr, PENDING); rpcErr != nil {
		log.L(ctx).Errorf("eth_getTransactionCount(%s) failed: %+v", fromAddr, rpcErr)
		return nil, rpcErr.Error()
	}
	return &transactionCount, nil
}

// fillGasLimit applies the estimate, bumped by the configured factor, when no limit is set
func (ec *ethClient) fillGasLimit(ctx context.Context, tx *ethsigner.Transaction) error {
	if tx.GasLimit != nil {
		return nil
	}
	gasEstimate, err := ec.GasEstimate(ctx, tx)
	if err != nil {
		return err
	}
	gasLimitFactored := new(big.Float).SetInt(gasEstimate.BigInt())
	gasLimitFactored = gasLimitFactored.Mul(gasLimitFactored, big.NewFloat(ec.gasEstimateFactor))
	gasLimit, _ := gasLimitFactored.Int(nil)
	tx.GasLimit = ethtypes.NewHexInteger(gasLimit)
	return nil
}

func (ec *ethClient) fillFees(ctx context.Context, txVersion EthTXVersion, tx *ethsigner.Transaction) error {
	if tx.GasPrice != nil || tx.MaxFeePerGas != nil {
		return nil
	}
	gasPrice, err := ec.GasPrice(ctx)
	if err != nil {
		return err
	}
	if txVersion == EIP1559 {
		tx.MaxFeePerGas = gasPrice
		tx.MaxPriorityFeePerGas = gasPrice
	} else {
		tx.GasPrice = gasPrice
	}
	return nil
}

func (ec *ethClient) BuildRawTransaction(ctx context.Context, txVersion EthTXVersion, from string, tx *ethsigner.Transaction) (ethtypes.HexBytes0xPrefix, error) {
	if ec.keymgr == nil {
		return nil, i18n.NewError(ctx, msgs.MsgEthClientNoKeyManager, from)
	}
	keyHandle, fromAddr, err := ec.keymgr.ResolveKey(ctx, from)
	if err != nil {
		return nil, err
	}
	tx.From = jsonAddress(fromAddr)

	// Nonce comes from the node's view of the pending state, for each TX
	if tx.Nonce == nil {
		txNonce, err := ec.GetTransactionCount(ctx, fromAddr.String())
		if err != nil {
			return nil, err
		}
		tx.Nonce = ethtypes.NewHexInteger(new(big.Int).SetUint64(txNonce.Uint64()))
	}
	if err := ec.fillGasLimit(ctx, tx); err != nil {
		return nil, err
	}
	if err := ec.fillFees(ctx, txVersion, tx); err != nil {
		return nil, err
	}

	var sigPayload *ethsigner.TransactionSignaturePayload
	switch txVersion {
	case EIP1559:
		sigPayload = tx.SignaturePayloadEIP1559(ec.chainID)
	case LEGACY_EIP155:
		sigPayload = tx.SignaturePayloadLegacyEIP155(ec.chainID)
	case LEGACY_ORIGINAL:
		sigPayload = tx.SignaturePayloadLegacyOriginal()
	default:
		return nil, i18n.NewError(ctx, msgs.MsgEthClientInvalidTXVersion, txVersion)
	}
	hash := sha3.NewLegacyKeccak256()
	_, _ = hash.Write(sigPayload.Bytes())
	sig, err := ec.keymgr.Sign(ctx, keyHandle, hash.Sum(nil))
	var rawTX []byte
	if err == nil {
		switch txVersion {
		case EIP1559:
			rawTX, err = tx.FinalizeEIP1559WithSignature(sigPayload, sig)
		case LEGACY_EIP155:
			rawTX, err = tx.FinalizeLegacyEIP155WithSignature(sigPayload, sig, ec.chainID)
		case LEGACY_ORIGINAL:
			rawTX, err = tx.FinalizeLegacyOriginalWithSignature(sigPayload, sig)
		}
	}
	if err != nil {
		log.L(ctx).Errorf("signing failed with keyHandle %s (addr=%s): %s", keyHandle, fromAddr, err)
		return nil, err
	}
	return rawTX, nil
}

func (ec *ethClient) SendRawTransaction(ctx context.Context, rawTX ethtypes.HexBytes0xPrefix) (ethtypes.HexBytes0xPrefix, error) {
	var txHash ethtypes.HexBytes0xPrefix
	if rpcErr := ec.rpc.CallRPC(ctx, &txHash, "eth_sendRawTransaction", rawTX); rpcErr != nil {
		addr, decodedTX, err := ethsigner.RecoverRawTransaction(ctx, rawTX, ec.chainID)
		if err != nil {
			log.L(ctx).Errorf("Invalid transaction build during signing: %s", err)
		} else {
			log.L(ctx).Errorf("Rejected TX (from=%s): %+v", addr, logJSON(decodedTX.Transaction))
		}
		return nil, rpcErr.Error()
	}
	return txHash, nil
}

// SendTransaction submits an unsigned transaction for the node to sign with tx.From
func (ec *ethClient) SendTransaction(ctx context.Context, tx *ethsigner.Transaction) (ethtypes.HexBytes0xPrefix, error) {
	if len(tx.From) == 0 {
		return nil, i18n.NewError(ctx, msgs.MsgEthClientMissingFrom)
	}
	var txHash ethtypes.HexBytes0xPrefix
	if rpcErr := ec.rpc.CallRPC(ctx, &txHash, "eth_sendTransaction", tx); rpcErr != nil {
		log.L(ctx).Errorf("eth_sendTransaction failed: %+v", rpcErr)
		return nil, rpcErr.Error()
	}
	return txHash, nil
}

// GetTransactionReceipt returns nil (without error) while the transaction is pending
func (ec *ethClient) GetTransactionReceipt(ctx context.Context, txHash string) (*TransactionReceipt, error) {
	var ethReceipt *txReceiptJSONRPC
	if rpcErr := ec.rpc.CallRPC(ctx, &ethReceipt, "eth_getTransactionReceipt", txHash); rpcErr != nil {
		return nil, rpcErr.Error()
	}
	if ethReceipt == nil {
		return nil, nil
	}
	var txIndex int64
	if ethReceipt.TransactionIndex != nil {
		txIndex = ethReceipt.TransactionIndex.BigInt().Int64()
	}
	receipt := &TransactionReceipt{
		TransactionHash:  ethReceipt.TransactionHash,
		BlockNumber:      (*fftypes.FFBigInt)(ethReceipt.BlockNumber),
		TransactionIndex: fftypes.NewFFBigInt(txIndex),
		BlockHash:        ethReceipt.BlockHash,
		From:             ethReceipt.From,
		To:               ethReceipt.To,
		ContractAddress:  ethReceipt.ContractAddress,
		GasUsed:          (*fftypes.FFBigInt)(ethReceipt.GasUsed),
		Success:          ethReceipt.Status != nil && ethReceipt.Status.BigInt().Int64() > 0,
		Logs:             ethReceipt.Logs,
	}
	receipt.ProtocolID = protocolIDForReceipt(receipt.BlockNumber, receipt.TransactionIndex)
	if !receipt.Success {
		receipt.RevertReason = ethReceipt.RevertReason
		receipt.ErrorMessage = ec.getErrorInfo(ctx, ethReceipt.RevertReason)
	}
	return receipt, nil
}

// WaitForReceipt polls with backoff until the receipt is available
func (ec *ethClient) WaitForReceipt(ctx context.Context, txHash string) (receipt *TransactionReceipt, err error) {
	err = ec.receiptPoll.Do(ctx, func(attempt int) (bool, error) {
		receipt, err = ec.GetTransactionReceipt(ctx, txHash)
		if err != nil {
			// a failed request is returned, only a pending receipt is polled again
			return false, err
		}
		if receipt == nil {
			return true, i18n.NewError(ctx, msgs.MsgEthClientReceiptTimeout, txHash, attempt)
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func logJSON(v interface{}) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func (ec *ethClient) getErrorInfo(ctx context.Context, revertReason *ethtypes.HexBytes0xPrefix) string {
	var returnDataBytes []byte
	if revertReason != nil {
		returnDataBytes = *revertReason
	}
	if len(returnDataBytes) > 4 && bytes.Equal(returnDataBytes[0:4], defaultErrorID) {
		value, err := defaultError.DecodeCallDataCtx(ctx, returnDataBytes)
		if err == nil && len(value.Children) > 0 {
			if errorMessage, ok := value.Children[0].Value.(string); ok {
				return errorMessage
			}
		}
	}
	if len(returnDataBytes) > 0 {
		return i18n.NewError(ctx, msgs.MsgEthClientReturnValueNotDecoded, revertReason.String()).Error()
	}
	return i18n.NewError(ctx, msgs.MsgEthClientReturnValueNotAvail).Error()
}
