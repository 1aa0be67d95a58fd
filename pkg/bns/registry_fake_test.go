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

package bns

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/hyperledger/firefly-signer/pkg/abi"
	"github.com/hyperledger/firefly-signer/pkg/ethsigner"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/kaleido-io/bns/internal/rpctest"
	"github.com/kaleido-io/bns/pkg/ethclient"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/sha3"
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

var defaultTldPrice, _ = new(big.Int).SetString("5000000000000000000", 10)

// fakeRegistry is an in-memory stand-in for the registry contract, served
// by a scripted node. Failed requirements are rejected the way ganache
// rejects them, with a "VM Exception" error on submission.
type fakeRegistry struct {
	t    *testing.T
	node *rpctest.Server
	abi  abi.ABI

	mux       sync.Mutex
	methods   []string
	txCount   int
	receipts  map[string]map[string]any
	tldPrices map[string]*big.Int
	owners    map[string]string
	reverse   map[string]string
	open      map[string]bool
	approved  map[string]bool
	content   map[string]string
	storage   map[string]string

	// when set, transactions are mined but revert with this reason
	mineReverted string
}

type registryRevert string

func newFakeRegistry(t *testing.T, chainID int64) *fakeRegistry {
	f := &fakeRegistry{
		t:         t,
		node:      rpctest.NewServer(t, chainID),
		abi:       BundledABI(),
		receipts:  map[string]map[string]any{},
		tldPrices: map[string]*big.Int{},
		owners:    map[string]string{},
		reverse:   map[string]string{},
		open:      map[string]bool{},
		approved:  map[string]bool{},
		content:   map[string]string{},
		storage:   map[string]string{},
	}
	f.node.On("eth_call", f.ethCall)
	f.node.On("eth_sendTransaction", f.ethSendTransaction)
	f.node.On("eth_sendRawTransaction", f.ethSendRawTransaction)
	f.node.On("eth_getTransactionReceipt", f.ethGetTransactionReceipt)
	f.node.On("eth_getTransactionCount", func(_ []json.RawMessage) (any, error) {
		f.mux.Lock()
		defer f.mux.Unlock()
		return fmt.Sprintf("0x%x", f.txCount), nil
	})
	f.node.On("eth_estimateGas", func(_ []json.RawMessage) (any, error) {
		return "0x30d40", nil
	})
	f.node.On("eth_gasPrice", func(_ []json.RawMessage) (any, error) {
		return "0x0", nil
	})
	return f
}

// invoked lists the contract methods of every eth_call and transaction, in order
func (f *fakeRegistry) invoked() []string {
	f.mux.Lock()
	defer f.mux.Unlock()
	return append([]string{}, f.methods...)
}

func (f *fakeRegistry) decode(data []byte) (*abi.Entry, map[string]any) {
	for _, e := range f.abi {
		if e.IsFunction() && len(data) >= 4 && bytes.Equal(e.FunctionSelectorBytes(), data[0:4]) {
			cv, err := e.DecodeCallDataCtx(context.Background(), data)
			if !assert.NoError(f.t, err) {
				return e, nil
			}
			jsonArgs, err := ethclient.StandardABISerializer().SerializeJSONCtx(context.Background(), cv)
			assert.NoError(f.t, err)
			var args map[string]any
			assert.NoError(f.t, json.Unmarshal(jsonArgs, &args))
			return e, args
		}
	}
	f.t.Errorf("unknown selector in %s", ethtypes.HexBytes0xPrefix(data))
	return nil, nil
}

func (f *fakeRegistry) ethCall(params []json.RawMessage) (any, error) {
	var tx ethsigner.Transaction
	f.node.Param(params, 0, &tx)
	fn, args := f.decode(tx.Data)
	if fn == nil {
		return nil, fmt.Errorf("bad call")
	}

	f.mux.Lock()
	f.methods = append(f.methods, fn.Name)
	result, err := f.query(fn.Name, args)
	f.mux.Unlock()
	if err != nil {
		return nil, err
	}

	types := make([]string, len(fn.Outputs))
	for i, o := range fn.Outputs {
		types[i] = o.Type
	}
	return rpctest.EncodeValues(f.t, types, result), nil
}

func (f *fakeRegistry) query(method string, args map[string]any) (any, error) {
	domain, _ := args["domain"].(string)
	switch method {
	case "getTldPrice":
		price := f.tldPrices[args["tld"].(string)]
		if price == nil {
			return nil, fmt.Errorf("execution reverted: TLD does not exist")
		}
		return price, nil
	case "reverseLookup":
		return f.reverse[args["addr"].(string)], nil
	case "getDomainOwner":
		if owner, ok := f.owners[domain]; ok {
			return owner, nil
		}
		return zeroAddress, nil
	case "getContent":
		return f.content[domain], nil
	case "getStorageSingle":
		return f.storage[domain+"/"+args["key"].(string)], nil
	case "getStorageMany":
		keys := args["keys"].([]any)
		values := make([]any, len(keys))
		for i, k := range keys {
			values[i] = f.storage[domain+"/"+k.(string)]
		}
		return values, nil
	case "isPublicDomainRegistrationOpen":
		return f.open[domain], nil
	case "isApprovedToRegister":
		return f.approved[domain+"/"+args["addr"].(string)], nil
	default:
		return nil, fmt.Errorf("not a view method: %s", method)
	}
}

func (f *fakeRegistry) ethSendTransaction(params []json.RawMessage) (any, error) {
	var tx ethsigner.Transaction
	f.node.Param(params, 0, &tx)
	var from ethtypes.Address0xHex
	assert.NoError(f.t, json.Unmarshal(tx.From, &from))
	return f.mine(from.String(), &tx)
}

func (f *fakeRegistry) ethSendRawTransaction(params []json.RawMessage) (any, error) {
	var rawTX ethtypes.HexBytes0xPrefix
	f.node.Param(params, 0, &rawTX)
	from, decoded, err := ethsigner.RecoverRawTransaction(context.Background(), rawTX, 1337)
	if !assert.NoError(f.t, err) {
		return nil, err
	}
	return f.mine(from.String(), decoded.Transaction)
}

func (f *fakeRegistry) mine(from string, tx *ethsigner.Transaction) (any, error) {
	fn, args := f.decode(tx.Data)
	if fn == nil {
		return nil, fmt.Errorf("bad transaction")
	}
	value := big.NewInt(0)
	if tx.Value != nil {
		value = tx.Value.BigInt()
	}

	f.mux.Lock()
	defer f.mux.Unlock()
	f.methods = append(f.methods, fn.Name)
	status := "0x1"
	var revertReason ethtypes.HexBytes0xPrefix
	if f.mineReverted != "" {
		status = "0x0"
		revertReason = rpctest.RevertData(f.t, f.mineReverted)
	} else if err := f.apply(from, fn.Name, value, args); err != nil {
		return nil, fmt.Errorf("VM Exception while processing transaction: revert %s", err)
	}

	f.txCount++
	hash := sha3.NewLegacyKeccak256()
	_, _ = hash.Write(tx.Data)
	_, _ = hash.Write([]byte{byte(f.txCount)})
	txHash := ethtypes.HexBytes0xPrefix(hash.Sum(nil)).String()
	receipt := map[string]any{
		"transactionHash":  txHash,
		"blockNumber":      fmt.Sprintf("0x%x", f.txCount),
		"blockHash":        txHash,
		"transactionIndex": "0x0",
		"from":             from,
		"to":               tx.To.String(),
		"gasUsed":          "0x5208",
		"status":           status,
	}
	if revertReason != nil {
		receipt["revertReason"] = revertReason.String()
	}
	f.receipts[txHash] = receipt
	return txHash, nil
}

func (f *fakeRegistry) ethGetTransactionReceipt(params []json.RawMessage) (any, error) {
	var txHash string
	f.node.Param(params, 0, &txHash)
	f.mux.Lock()
	defer f.mux.Unlock()
	if r, ok := f.receipts[txHash]; ok {
		return r, nil
	}
	return nil, nil
}

func (f *fakeRegistry) requireOwner(from, domain string) error {
	if f.owners[domain] != from {
		return registryRevert("Not domain owner")
	}
	return nil
}

func (r registryRevert) Error() string { return string(r) }

func (f *fakeRegistry) apply(from, method string, value *big.Int, args map[string]any) error {
	domain, _ := args["domain"].(string)
	switch method {
	case "createTopLevelDomain":
		tld := args["tld"].(string)
		if _, exists := f.tldPrices[tld]; exists {
			return registryRevert("TLD exists")
		}
		f.tldPrices[tld] = defaultTldPrice
	case "registerDomain":
		tld := args["tld"].(string)
		price, ok := f.tldPrices[tld]
		switch {
		case !ok:
			return registryRevert("TLD does not exist")
		case value.Cmp(price) != 0:
			return registryRevert("Incorrect payment")
		}
		name := domain + "@" + tld
		if _, taken := f.owners[name]; taken {
			return registryRevert("Domain taken")
		}
		f.owners[name] = from
		f.reverse[from] = name
		f.open[name] = args["open"].(bool)
	case "registerSubdomain":
		if !f.open[domain] && !f.approved[domain+"/"+from] && f.owners[domain] != from {
			return registryRevert("Not approved to register")
		}
		name := args["subdomain"].(string) + "." + domain
		f.owners[name] = from
		f.open[name] = args["open"].(bool)
	case "registerSubdomainAsDomainOwner":
		if err := f.requireOwner(from, domain); err != nil {
			return err
		}
		f.owners[args["subdomain"].(string)+"."+domain] = args["owner"].(string)
	case "openPublicDomainRegistration", "closePublicDomainRegistration":
		if err := f.requireOwner(from, domain); err != nil {
			return err
		}
		f.open[domain] = method == "openPublicDomainRegistration"
	case "approveForSubdomain", "disapproveForSubdomain":
		if err := f.requireOwner(from, domain); err != nil {
			return err
		}
		f.approved[domain+"/"+args["user"].(string)] = method == "approveForSubdomain"
	case "transferDomain":
		if err := f.requireOwner(from, domain); err != nil {
			return err
		}
		f.owners[domain] = args["newOwner"].(string)
	case "setContent":
		if err := f.requireOwner(from, domain); err != nil {
			return err
		}
		f.content[domain] = args["content"].(string)
	case "setDomainStorageSingle":
		if err := f.requireOwner(from, domain); err != nil {
			return err
		}
		f.storage[domain+"/"+args["key"].(string)] = args["value"].(string)
	case "setDomainStorageMany":
		if err := f.requireOwner(from, domain); err != nil {
			return err
		}
		for _, kv := range args["kvPairs"].([]any) {
			pair := kv.([]any)
			f.storage[domain+"/"+pair[0].(string)] = pair[1].(string)
		}
	case "deleteDomain":
		if err := f.requireOwner(from, domain); err != nil {
			return err
		}
		delete(f.owners, domain)
		delete(f.content, domain)
	case "deleteSubdomainAsDomainOwner":
		if err := f.requireOwner(from, domain); err != nil {
			return err
		}
		delete(f.owners, args["subdomain"].(string)+"."+domain)
	default:
		return registryRevert(fmt.Sprintf("unknown method %s", method))
	}
	return nil
}

func (f *fakeRegistry) setTldPrice(tld string, price *big.Int) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.tldPrices[strings.ToLower(tld)] = price
}
