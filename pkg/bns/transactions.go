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
	"context"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/kaleido-io/bns/internal/msgs"
	"github.com/kaleido-io/bns/pkg/ethclient"
)

// KeyValue is one storage slot of a domain. Order is preserved on submission.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (c *Client) CreateTopLevelDomain(ctx context.Context, tld string, opts *TxOptions) (*ethclient.TransactionReceipt, error) {
	return c.sendTransaction(ctx, OpCreateTopLevelDomain, nil, opts, strings.ToLower(tld))
}

// RegisterDomain registers "domain@tld", paying the current price of the tld.
// With open set, anyone may register subdomains of it.
func (c *Client) RegisterDomain(ctx context.Context, name string, open bool, opts *TxOptions) (*ethclient.TransactionReceipt, error) {
	qd, err := SplitDomainTLD(ctx, name)
	if err != nil {
		return nil, err
	}
	price, err := c.GetTldPrice(ctx, qd.TLD)
	if err != nil {
		return nil, err
	}
	return c.sendTransaction(ctx, OpRegisterDomain, price, opts, qd.Domain, qd.TLD, open)
}

func (c *Client) RegisterSubdomain(ctx context.Context, name string, open bool, opts *TxOptions) (*ethclient.TransactionReceipt, error) {
	qs, err := SplitSubdomainDomain(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.sendTransaction(ctx, OpRegisterSubdomain, nil, opts, qs.Subdomain, qs.Domain, open)
}

// RegisterSubdomainFor registers "subdomain.domain@tld" as the owner of the
// domain, with owner as the owner of the new subdomain
func (c *Client) RegisterSubdomainFor(ctx context.Context, name, owner string, opts *TxOptions) (*ethclient.TransactionReceipt, error) {
	qs, err := SplitSubdomainDomain(ctx, name)
	if err != nil {
		return nil, err
	}
	ownerAddr, err := c.checkAddress(ctx, owner)
	if err != nil {
		return nil, err
	}
	return c.sendTransaction(ctx, OpRegisterSubdomainFor, nil, opts, qs.Subdomain, qs.Domain, ownerAddr)
}

func (c *Client) OpenRegistration(ctx context.Context, domain string, opts *TxOptions) (*ethclient.TransactionReceipt, error) {
	return c.sendTransaction(ctx, OpOpenRegistration, nil, opts, strings.ToLower(domain))
}

func (c *Client) CloseRegistration(ctx context.Context, domain string, opts *TxOptions) (*ethclient.TransactionReceipt, error) {
	return c.sendTransaction(ctx, OpCloseRegistration, nil, opts, strings.ToLower(domain))
}

func (c *Client) ApproveToRegister(ctx context.Context, domain, address string, opts *TxOptions) (*ethclient.TransactionReceipt, error) {
	return c.sendWithAddress(ctx, OpApproveToRegister, domain, address, opts)
}

func (c *Client) DisapproveToRegister(ctx context.Context, domain, address string, opts *TxOptions) (*ethclient.TransactionReceipt, error) {
	return c.sendWithAddress(ctx, OpDisapproveToRegister, domain, address, opts)
}

func (c *Client) TransferDomain(ctx context.Context, domain, address string, opts *TxOptions) (*ethclient.TransactionReceipt, error) {
	return c.sendWithAddress(ctx, OpTransferDomain, domain, address, opts)
}

func (c *Client) sendWithAddress(ctx context.Context, op Operation, domain, address string, opts *TxOptions) (*ethclient.TransactionReceipt, error) {
	addr, err := c.checkAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	return c.sendTransaction(ctx, op, nil, opts, strings.ToLower(domain), addr)
}

func (c *Client) SetContent(ctx context.Context, domain, content string, opts *TxOptions) (*ethclient.TransactionReceipt, error) {
	return c.sendTransaction(ctx, OpSetContent, nil, opts, strings.ToLower(domain), content)
}

// SetStorage writes a single pair with setDomainStorageSingle, and
// several with setDomainStorageMany
func (c *Client) SetStorage(ctx context.Context, domain string, pairs []KeyValue, opts *TxOptions) (*ethclient.TransactionReceipt, error) {
	domain = strings.ToLower(domain)
	switch len(pairs) {
	case 0:
		return nil, i18n.NewError(ctx, msgs.MsgClientStorageEmpty)
	case 1:
		return c.sendTransaction(ctx, OpSetStorageSingle, nil, opts, domain, pairs[0].Key, pairs[0].Value)
	default:
		kvPairs := make([]any, len(pairs))
		for i, kv := range pairs {
			kvPairs[i] = []any{kv.Key, kv.Value}
		}
		return c.sendTransaction(ctx, OpSetStorageMany, nil, opts, domain, kvPairs)
	}
}

func (c *Client) DeleteDomain(ctx context.Context, domain string, opts *TxOptions) (*ethclient.TransactionReceipt, error) {
	return c.sendTransaction(ctx, OpDeleteDomain, nil, opts, strings.ToLower(domain))
}

// DeleteSubdomain removes "subdomain.domain@tld" as the owner of the domain
func (c *Client) DeleteSubdomain(ctx context.Context, name string, opts *TxOptions) (*ethclient.TransactionReceipt, error) {
	qs, err := SplitSubdomainDomain(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.sendTransaction(ctx, OpDeleteSubdomain, nil, opts, qs.Subdomain, qs.Domain)
}
