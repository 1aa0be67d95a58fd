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

package rpctest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hyperledger/firefly-signer/pkg/abi"
	"github.com/hyperledger/firefly-signer/pkg/ethsigner"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// EncodeValues ABI encodes values of the given solidity types, as an eth_call would return them
func EncodeValues(t *testing.T, types []string, values ...any) ethtypes.HexBytes0xPrefix {
	params := make(abi.ParameterArray, len(types))
	for i, typ := range types {
		params[i] = &abi.Parameter{Type: typ}
	}
	data, err := params.EncodeABIDataValuesCtx(context.Background(), values)
	require.NoError(t, err)
	return data
}

// RevertData builds the return data of a solidity revert("reason")
func RevertData(t *testing.T, reason string) ethtypes.HexBytes0xPrefix {
	errorABI := &abi.Entry{Type: abi.Error, Name: "Error", Inputs: abi.ParameterArray{{Type: "string"}}}
	data := EncodeValues(t, []string{"string"}, reason)
	return append(append([]byte{}, errorABI.FunctionSelectorBytes()...), data...)
}

// DecodeCall decodes the call data in the transaction of an eth_call,
// eth_estimateGas or eth_sendTransaction against the supplied function
func DecodeCall(t *testing.T, fn *abi.Entry, param json.RawMessage) (*ethsigner.Transaction, []any) {
	var tx ethsigner.Transaction
	if !assert.NoError(t, json.Unmarshal(param, &tx)) {
		return &tx, nil
	}
	return &tx, DecodeCallData(t, fn, tx.Data)
}

// DecodeCallData returns the arguments of a function call. Arrays become
// []any, and integers (including addresses) are *big.Int.
func DecodeCallData(t *testing.T, fn *abi.Entry, data []byte) []any {
	cv, err := fn.DecodeCallDataCtx(context.Background(), data)
	if !assert.NoError(t, err) {
		return nil
	}
	return plainValue(cv).([]any)
}

func plainValue(cv *abi.ComponentValue) any {
	if cv.Value != nil {
		return cv.Value
	}
	values := make([]any, len(cv.Children))
	for i, c := range cv.Children {
		values[i] = plainValue(c)
	}
	return values
}
