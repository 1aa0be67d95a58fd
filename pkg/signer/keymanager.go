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

// Package signer holds secp256k1 keys in memory, so that the name service
// client can sign its own transactions rather than relying on the node.
package signer

import (
	"context"
	"encoding/hex"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/hyperledger/firefly-signer/pkg/secp256k1"
	"github.com/kaleido-io/bns/internal/confutil"
	"github.com/kaleido-io/bns/internal/log"
	"github.com/kaleido-io/bns/internal/msgs"
	"github.com/kaleido-io/bns/pkg/bnsconf"
)

var addressRegexp = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{40}$`)

type KeyManager struct {
	staticKeys  map[string]*secp256k1.KeyPair
	staticNames []string
	hd          *hdWallet
	hdScanDepth int
}

func NewKeyManager(ctx context.Context, conf *bnsconf.SignerConfig) (*KeyManager, error) {
	km := &KeyManager{
		staticKeys:  make(map[string]*secp256k1.KeyPair, len(conf.Keys)),
		hdScanDepth: confutil.IntMin(conf.HDScanDepth, 0, *bnsconf.SignerDefaults.HDScanDepth),
	}
	for name, keyHex := range conf.Keys {
		keyBytes, err := hex.DecodeString(strings.TrimPrefix(keyHex, "0x"))
		if err != nil || len(keyBytes) != 32 {
			return nil, i18n.NewError(ctx, msgs.MsgSignerInvalidPrivateKey, name)
		}
		kp, err := secp256k1.NewSecp256k1KeyPair(keyBytes)
		if err != nil {
			return nil, i18n.WrapError(ctx, err, msgs.MsgSignerInvalidPrivateKey, name)
		}
		km.staticKeys[name] = kp
		km.staticNames = append(km.staticNames, name)
	}
	// deterministic address matching
	sort.Strings(km.staticNames)

	mnemonic := confutil.StringOrEmpty(conf.Mnemonic, "")
	if mnemonic != "" {
		hd, err := newHDWallet(ctx, mnemonic, confutil.StringNotEmpty(conf.HDPathPrefix, *bnsconf.SignerDefaults.HDPathPrefix))
		if err != nil {
			return nil, err
		}
		km.hd = hd
	}
	log.L(ctx).Debugf("Key manager initialized with %d static keys (hdWallet=%t)", len(km.staticKeys), km.hd != nil)
	return km, nil
}

// ResolveKey accepts a configured key name, a full "m/..." derivation path,
// a bare index under the configured HD prefix, or the address of a managed key.
func (km *KeyManager) ResolveKey(ctx context.Context, identifier string) (string, *ethtypes.Address0xHex, error) {
	if kp, ok := km.staticKeys[identifier]; ok {
		return identifier, &kp.Address, nil
	}
	if strings.HasPrefix(identifier, "m/") {
		return km.resolveHDPath(ctx, identifier, identifier)
	}
	if _, err := strconv.ParseUint(identifier, 10, 32); err == nil {
		if km.hd == nil {
			return "", nil, i18n.NewError(ctx, msgs.MsgSignerNoHDWallet, identifier)
		}
		return km.resolveHDPath(ctx, identifier, km.hd.pathForIndex(identifier))
	}
	if addressRegexp.MatchString(identifier) {
		return km.resolveAddress(ctx, identifier)
	}
	return "", nil, i18n.NewError(ctx, msgs.MsgSignerKeyNotFound, identifier)
}

func (km *KeyManager) resolveHDPath(ctx context.Context, identifier, path string) (string, *ethtypes.Address0xHex, error) {
	if km.hd == nil {
		return "", nil, i18n.NewError(ctx, msgs.MsgSignerNoHDWallet, identifier)
	}
	kp, err := km.hd.keyPair(ctx, path)
	if err != nil {
		return "", nil, err
	}
	return path, &kp.Address, nil
}

func (km *KeyManager) resolveAddress(ctx context.Context, identifier string) (string, *ethtypes.Address0xHex, error) {
	addr, err := ethtypes.NewAddress(identifier)
	if err != nil {
		return "", nil, i18n.WrapError(ctx, err, msgs.MsgSignerKeyNotFound, identifier)
	}
	for _, name := range km.staticNames {
		if km.staticKeys[name].Address == *addr {
			return name, addr, nil
		}
	}
	if km.hd != nil {
		for i := 0; i < km.hdScanDepth; i++ {
			path := km.hd.pathForIndex(strconv.Itoa(i))
			kp, err := km.hd.keyPair(ctx, path)
			if err != nil {
				return "", nil, err
			}
			if kp.Address == *addr {
				return path, addr, nil
			}
		}
	}
	return "", nil, i18n.NewError(ctx, msgs.MsgSignerAddressNotManaged, identifier)
}

// Sign signs a 32 byte keccak hash with the key from a previous ResolveKey
func (km *KeyManager) Sign(ctx context.Context, keyHandle string, hash []byte) (*secp256k1.SignatureData, error) {
	if len(hash) != 32 {
		return nil, i18n.NewError(ctx, msgs.MsgSignerPayloadNotHash, len(hash))
	}
	var kp *secp256k1.KeyPair
	switch {
	case km.staticKeys[keyHandle] != nil:
		kp = km.staticKeys[keyHandle]
	case strings.HasPrefix(keyHandle, "m/") && km.hd != nil:
		var err error
		if kp, err = km.hd.keyPair(ctx, keyHandle); err != nil {
			return nil, err
		}
	default:
		return nil, i18n.NewError(ctx, msgs.MsgSignerInvalidKeyHandle, keyHandle)
	}
	return kp.SignDirect(hash)
}

type hdWallet struct {
	prefix string
	master *hdkeychain.ExtendedKey
}

func (hd *hdWallet) pathForIndex(index string) string {
	return hd.prefix + "/" + index
}
