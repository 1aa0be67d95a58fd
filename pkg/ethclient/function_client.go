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
	"math/big"
	"strconv"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/abi"
	"github.com/hyperledger/firefly-signer/pkg/ethsigner"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/kaleido-io/bns/internal/log"
	"github.com/kaleido-io/bns/internal/msgs"
)

type ABIClient interface {
	ABI() abi.ABI
	Function(ctx context.Context, nameOrFullSig string) (_ ABIFunctionClient, err error)
}

type ABIFunctionClient interface {
	Definition() *abi.Entry
	R(ctx context.Context) ABIFunctionRequestBuilder
}

type ABIFunctionRequestBuilder interface {
	TXVersion(EthTXVersion) ABIFunctionRequestBuilder
	Signer(string) ABIFunctionRequestBuilder
	To(*ethtypes.Address0xHex) ABIFunctionRequestBuilder
	GasLimit(*big.Int) ABIFunctionRequestBuilder
	Value(*big.Int) ABIFunctionRequestBuilder
	Input(any) ABIFunctionRequestBuilder
	Output(any) ABIFunctionRequestBuilder
	Serializer(*abi.Serializer) ABIFunctionRequestBuilder

	BuildCallData() (err error)
	Call() (err error)
	SignAndSend() (txHash ethtypes.HexBytes0xPrefix, err error)
	Send() (txHash ethtypes.HexBytes0xPrefix, err error)
	SendAndWait() (receipt *TransactionReceipt, err error)
}

type abiClient struct {
	ec        *ethClient
	abi       abi.ABI
	functions map[string]*abi.Entry
}

type abiFunctionClient struct {
	ec        *ethClient
	entry     *abi.Entry
	signature string
	selector  []byte
	inputs    abi.TypeComponent
	outputs   abi.TypeComponent
}

type abiFunctionRequestBuilder struct {
	*abiFunctionClient
	ctx       context.Context
	txVersion EthTXVersion
	tx        ethsigner.Transaction
	block     string
	fromStr    *string
	input      any
	output     any
	serializer *abi.Serializer
}

func (ec *ethClient) ABI(ctx context.Context, a abi.ABI) (ABIClient, error) {
	functions := map[string]*abi.Entry{}
	for _, e := range a {
		s, err := e.SignatureCtx(ctx)
		if err != nil {
			return nil, err
		}
		if e.Name != "" && e.IsFunction() {
			fe := withNamedOutputs(e)
			functions[e.Name] = fe
			functions[s] = fe
		}
	}
	return &abiClient{
		ec:        ec,
		abi:       a,
		functions: functions,
	}, nil
}

// withNamedOutputs copies the entry, keying unnamed outputs by their position
// in the JSON result. The caller's ABI is not modified.
func withNamedOutputs(e *abi.Entry) *abi.Entry {
	fe := *e
	fe.Outputs = make(abi.ParameterArray, len(e.Outputs))
	for i, o := range e.Outputs {
		po := *o
		if po.Name == "" {
			po.Name = strconv.Itoa(i)
		}
		fe.Outputs[i] = &po
	}
	return &fe
}

func (ec *ethClient) ABIFunction(ctx context.Context, functionABI *abi.Entry) (_ ABIFunctionClient, err error) {
	ac := &abiFunctionClient{ec: ec, entry: functionABI}
	ac.selector, err = functionABI.GenerateFunctionSelectorCtx(ctx)
	if err == nil {
		ac.signature, err = functionABI.SignatureCtx(ctx)
	}
	if err == nil {
		ac.inputs, err = functionABI.Inputs.TypeComponentTreeCtx(ctx)
	}
	if err == nil {
		ac.outputs, err = functionABI.Outputs.TypeComponentTreeCtx(ctx)
	}
	if err != nil {
		return nil, err
	}
	return ac, nil
}

func (abic *abiClient) Function(ctx context.Context, nameOrFullSig string) (_ ABIFunctionClient, err error) {
	functionABI := abic.functions[nameOrFullSig]
	if functionABI == nil {
		return nil, i18n.NewError(ctx, msgs.MsgEthClientFunctionNotFound, nameOrFullSig)
	}
	return abic.ec.ABIFunction(ctx, functionABI)
}

func (abic *abiClient) ABI() abi.ABI {
	return abic.abi
}

func (ac *abiFunctionClient) Definition() *abi.Entry {
	return ac.entry
}

func (ac *abiFunctionClient) R(ctx context.Context) ABIFunctionRequestBuilder {
	return &abiFunctionRequestBuilder{
		ctx:               ctx,
		txVersion:         ac.ec.txVersion,
		abiFunctionClient: ac,
		block:             string(LATEST),
	}
}

func (ac *abiFunctionRequestBuilder) TXVersion(v EthTXVersion) ABIFunctionRequestBuilder {
	ac.txVersion = v
	return ac
}

func (ac *abiFunctionRequestBuilder) Signer(fromStr string) ABIFunctionRequestBuilder {
	ac.fromStr = &fromStr
	return ac
}

func (ac *abiFunctionRequestBuilder) To(to *ethtypes.Address0xHex) ABIFunctionRequestBuilder {
	ac.tx.To = to
	return ac
}

func (ac *abiFunctionRequestBuilder) GasLimit(gas *big.Int) ABIFunctionRequestBuilder {
	ac.tx.GasLimit = (*ethtypes.HexInteger)(gas)
	return ac
}

func (ac *abiFunctionRequestBuilder) Value(value *big.Int) ABIFunctionRequestBuilder {
	ac.tx.Value = (*ethtypes.HexInteger)(value)
	return ac
}

// Input accepts an ordered []any, a map keyed by parameter name, or JSON of either
func (ac *abiFunctionRequestBuilder) Input(input any) ABIFunctionRequestBuilder {
	ac.input = input
	return ac
}

func (ac *abiFunctionRequestBuilder) Output(output any) ABIFunctionRequestBuilder {
	ac.output = output
	return ac
}

// Serializer replaces StandardABISerializer for the call result
func (ac *abiFunctionRequestBuilder) Serializer(s *abi.Serializer) ABIFunctionRequestBuilder {
	ac.serializer = s
	return ac
}

func (ac *abiFunctionRequestBuilder) BuildCallData() (err error) {
	if ac.input == nil {
		return i18n.NewError(ac.ctx, msgs.MsgEthClientMissingInput)
	}
	if ac.tx.To == nil {
		return i18n.NewError(ac.ctx, msgs.MsgEthClientMissingTo)
	}
	var input any
	switch v := ac.input.(type) {
	case map[string]any, []any:
		input = v
	case string:
		err = json.Unmarshal([]byte(v), &input)
	case []byte:
		err = json.Unmarshal(v, &input)
	default:
		var jsonInput []byte
		jsonInput, err = json.Marshal(v)
		if err == nil {
			err = json.Unmarshal(jsonInput, &input)
		}
	}
	var cv *abi.ComponentValue
	if err == nil {
		cv, err = ac.inputs.ParseExternalCtx(ac.ctx, input)
	}
	var inputData []byte
	if err == nil {
		inputData, err = cv.EncodeABIDataCtx(ac.ctx)
	}
	if err != nil {
		return i18n.WrapError(ac.ctx, err, msgs.MsgEthClientInvalidInput, ac.signature)
	}
	ac.tx.Data = make([]byte, len(ac.selector)+len(inputData))
	copy(ac.tx.Data, ac.selector)
	copy(ac.tx.Data[len(ac.selector):], inputData)
	return nil
}

func (ac *abiFunctionRequestBuilder) Call() (err error) {
	if ac.output == nil {
		return i18n.NewError(ac.ctx, msgs.MsgEthClientMissingOutput)
	}
	jsonData, err := ac.callJSON()
	if err == nil {
		err = json.Unmarshal(jsonData, ac.output)
	}
	return err
}

func (ac *abiFunctionRequestBuilder) callJSON() (jsonData []byte, err error) {
	if ac.tx.Data == nil {
		if err := ac.BuildCallData(); err != nil {
			return nil, err
		}
	}
	var from *ethtypes.Address0xHex
	if ac.fromStr != nil {
		if from, err = ac.ec.ResolveAccount(ac.ctx, *ac.fromStr); err != nil {
			return nil, err
		}
	}
	resData, err := ac.ec.CallContract(ac.ctx, from, &ac.tx, ac.block)
	if err != nil {
		return nil, err
	}
	serializer := ac.serializer
	if serializer == nil {
		serializer = StandardABISerializer()
	}
	cv, err := ac.outputs.DecodeABIDataCtx(ac.ctx, resData, 0)
	if err == nil {
		jsonData, err = serializer.SerializeJSONCtx(ac.ctx, cv)
	}
	return jsonData, err
}

func (ac *abiFunctionRequestBuilder) SignAndSend() (txHash ethtypes.HexBytes0xPrefix, err error) {
	if ac.tx.Data == nil {
		if err := ac.BuildCallData(); err != nil {
			return nil, err
		}
	}
	if ac.fromStr == nil {
		return nil, i18n.NewError(ac.ctx, msgs.MsgEthClientMissingFrom)
	}
	rawTX, err := ac.ec.BuildRawTransaction(ac.ctx, ac.txVersion, *ac.fromStr, &ac.tx)
	if err != nil {
		return nil, err
	}
	return ac.ec.SendRawTransaction(ac.ctx, rawTX)
}

// Send signs locally when a key manager is available, and otherwise asks the node to sign
func (ac *abiFunctionRequestBuilder) Send() (txHash ethtypes.HexBytes0xPrefix, err error) {
	if ac.ec.keymgr != nil {
		return ac.SignAndSend()
	}
	if ac.tx.Data == nil {
		if err := ac.BuildCallData(); err != nil {
			return nil, err
		}
	}
	if ac.fromStr == nil {
		return nil, i18n.NewError(ac.ctx, msgs.MsgEthClientMissingFrom)
	}
	from, err := ac.ec.ResolveAccount(ac.ctx, *ac.fromStr)
	if err != nil {
		return nil, err
	}
	ac.tx.From = jsonAddress(from)
	if err := ac.ec.fillGasLimit(ac.ctx, &ac.tx); err != nil {
		return nil, err
	}
	log.L(ac.ctx).Debugf("Sending %s from %s for node signing", ac.signature, from)
	return ac.ec.SendTransaction(ac.ctx, &ac.tx)
}

func (ac *abiFunctionRequestBuilder) SendAndWait() (*TransactionReceipt, error) {
	txHash, err := ac.Send()
	if err != nil {
		return nil, err
	}
	return ac.ec.WaitForReceipt(ac.ctx, txHash.String())
}
