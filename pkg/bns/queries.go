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
	"math/big"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/fftypes"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/kaleido-io/bns/internal/msgs"
)

// GetTldPrice returns the registration fee of a top-level domain, in wei
func (c *Client) GetTldPrice(ctx context.Context, tld string) (*big.Int, error) {
	var price fftypes.FFBigInt
	if err := c.call(ctx, OpGetTldPrice, &price, strings.ToLower(tld)); err != nil {
		return nil, err
	}
	return price.Int(), nil
}

// ReverseLookup returns the domain an address points to
func (c *Client) ReverseLookup(ctx context.Context, address string) (string, error) {
	addr, err := c.checkAddress(ctx, address)
	if err != nil {
		return "", err
	}
	var domain string
	err = c.call(ctx, OpReverseLookup, &domain, addr)
	return domain, err
}

func (c *Client) GetDomainOwner(ctx context.Context, domain string) (*ethtypes.Address0xHex, error) {
	var owner ethtypes.Address0xHex
	if err := c.call(ctx, OpGetDomainOwner, &owner, strings.ToLower(domain)); err != nil {
		return nil, err
	}
	return &owner, nil
}

func (c *Client) GetContent(ctx context.Context, domain string) (string, error) {
	var content string
	err := c.call(ctx, OpGetContent, &content, strings.ToLower(domain))
	return content, err
}

// GetStorage reads one value per key, in key order. A single key uses
// getStorageSingle and several use getStorageMany.
func (c *Client) GetStorage(ctx context.Context, domain string, keys ...string) ([]string, error) {
	domain = strings.ToLower(domain)
	switch len(keys) {
	case 0:
		return nil, i18n.NewError(ctx, msgs.MsgClientStorageKeysMissing)
	case 1:
		var value string
		if err := c.call(ctx, OpGetStorageSingle, &value, domain, keys[0]); err != nil {
			return nil, err
		}
		return []string{value}, nil
	default:
		keyList := make([]any, len(keys))
		for i, k := range keys {
			keyList[i] = k
		}
		var values []string
		if err := c.call(ctx, OpGetStorageMany, &values, domain, keyList); err != nil {
			return nil, err
		}
		if len(values) != len(keys) {
			return nil, i18n.NewError(ctx, msgs.MsgClientStorageCountMismatch, len(keys), len(values))
		}
		return values, nil
	}
}

// GetRegistrationStatus reports whether anyone may register subdomains of the domain
func (c *Client) GetRegistrationStatus(ctx context.Context, domain string) (bool, error) {
	var open bool
	err := c.call(ctx, OpIsRegistrationOpen, &open, strings.ToLower(domain))
	return open, err
}

// CheckApproved reports whether address may register subdomains of the domain
func (c *Client) CheckApproved(ctx context.Context, domain, address string) (bool, error) {
	addr, err := c.checkAddress(ctx, address)
	if err != nil {
		return false, err
	}
	var approved bool
	err = c.call(ctx, OpIsApprovedToRegister, &approved, strings.ToLower(domain), addr)
	return approved, err
}
