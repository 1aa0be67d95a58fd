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
	"fmt"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/fftypes"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/abi"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/kaleido-io/bns/internal/msgs"
)

type EthTXVersion string

const (
	LEGACY_ORIGINAL EthTXVersion = "legacy_original"
	LEGACY_EIP155   EthTXVersion = "legacy_eip155"
	EIP1559         EthTXVersion = "eip1559"
)

func parseTXVersion(ctx context.Context, s string) (EthTXVersion, error) {
	switch v := EthTXVersion(strings.ToLower(s)); v {
	case LEGACY_ORIGINAL, LEGACY_EIP155, EIP1559:
		return v, nil
	default:
		return "", i18n.NewError(ctx, msgs.MsgEthClientInvalidTXVersion, s)
	}
}

type BlockRef string

const (
	LATEST  BlockRef = "latest"
	PENDING BlockRef = "pending"
)

// txReceiptJSONRPC is the receipt as returned by eth_getTransactionReceipt
type txReceiptJSONRPC struct {
	BlockHash         ethtypes.HexBytes0xPrefix  `json:"blockHash"`
	BlockNumber       *ethtypes.HexInteger       `json:"blockNumber"`
	ContractAddress   *ethtypes.Address0xHex     `json:"contractAddress"`
	CumulativeGasUsed *ethtypes.HexInteger       `json:"cumulativeGasUsed"`
	From              *ethtypes.Address0xHex     `json:"from"`
	GasUsed           *ethtypes.HexInteger       `json:"gasUsed"`
	Logs              []*ReceiptLog              `json:"logs"`
	Status            *ethtypes.HexInteger       `json:"status"`
	To                *ethtypes.Address0xHex     `json:"to"`
	TransactionHash   ethtypes.HexBytes0xPrefix  `json:"transactionHash"`
	TransactionIndex  *ethtypes.HexInteger       `json:"transactionIndex"`
	RevertReason      *ethtypes.HexBytes0xPrefix `json:"revertReason"`
}

type ReceiptLog struct {
	LogIndex *ethtypes.HexInteger        `json:"logIndex"`
	Address  *ethtypes.Address0xHex      `json:"address"`
	Data     ethtypes.HexBytes0xPrefix   `json:"data"`
	Topics   []ethtypes.HexBytes0xPrefix `json:"topics"`
}

// TransactionReceipt is the outcome of a mined write, with numbers formatted as decimals
type TransactionReceipt struct {
	TransactionHash  ethtypes.HexBytes0xPrefix  `json:"transactionHash"`
	BlockNumber      *fftypes.FFBigInt          `json:"blockNumber"`
	TransactionIndex *fftypes.FFBigInt          `json:"transactionIndex"`
	BlockHash        ethtypes.HexBytes0xPrefix  `json:"blockHash"`
	ProtocolID       string                     `json:"protocolId"`
	From             *ethtypes.Address0xHex     `json:"from,omitempty"`
	To               *ethtypes.Address0xHex     `json:"to,omitempty"`
	ContractAddress  *ethtypes.Address0xHex     `json:"contractAddress,omitempty"`
	GasUsed          *fftypes.FFBigInt          `json:"gasUsed,omitempty"`
	Success          bool                       `json:"success"`
	RevertReason     *ethtypes.HexBytes0xPrefix `json:"revertReason,omitempty"`
	ErrorMessage     string                     `json:"errorMessage,omitempty"`
	Logs             []*ReceiptLog              `json:"logs,omitempty"`
}

var (
	// revert("some error") returns the default Error(string)
	defaultError = &abi.Entry{
		Type: abi.Error,
		Name: "Error",
		Inputs: abi.ParameterArray{
			{
				Type: "string",
			},
		},
	}
	defaultErrorID = defaultError.FunctionSelectorBytes()
)

func protocolIDForReceipt(blockNumber, transactionIndex *fftypes.FFBigInt) string {
	if blockNumber != nil && transactionIndex != nil {
		return fmt.Sprintf("%.12d/%.6d", blockNumber.Int(), transactionIndex.Int())
	}
	return ""
}

// StandardABISerializer formats decoded outputs as JSON objects, with
// integers as base 10 strings and bytes as 0x prefixed hex
func StandardABISerializer() *abi.Serializer {
	return abi.NewSerializer().
		SetFormattingMode(abi.FormatAsObjects).
		SetIntSerializer(abi.Base10StringIntSerializer).
		SetFloatSerializer(abi.Base10StringFloatSerializer).
		SetByteSerializer(abi.HexByteSerializer0xPrefix)
}
