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

package signer

import (
	"context"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/secp256k1"
	"github.com/kaleido-io/bns/internal/msgs"
	"github.com/tyler-smith/go-bip39"
)

const hardenedOffset = 0x80000000

func newHDWallet(ctx context.Context, mnemonic, prefix string) (*hdWallet, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgSignerInvalidMnemonic)
	}
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgSignerInvalidMnemonic)
	}
	// spaces are allowed for readability in config
	prefix = strings.ReplaceAll(prefix, " ", "")
	return &hdWallet{prefix: strings.TrimSuffix(prefix, "/"), master: master}, nil
}

func (hd *hdWallet) keyPair(ctx context.Context, path string) (*secp256k1.KeyPair, error) {
	segments := strings.Split(path, "/")
	if len(segments) < 2 || segments[0] != "m" {
		return nil, i18n.NewError(ctx, msgs.MsgSignerBIP44PathInvalid, path)
	}
	pos := hd.master
	for _, s := range segments[1:] {
		number, isHardened := strings.CutSuffix(s, "'")
		derivation, err := strconv.ParseUint(number, 10, 64)
		if err != nil {
			return nil, i18n.WrapError(ctx, err, msgs.MsgSignerBIP44PathInvalid, s)
		}
		if derivation >= hardenedOffset {
			return nil, i18n.NewError(ctx, msgs.MsgSignerBIP32IndexTooLarge, derivation)
		}
		if isHardened {
			derivation += hardenedOffset
		}
		if pos, err = pos.Derive(uint32(derivation)); err != nil {
			return nil, i18n.WrapError(ctx, err, msgs.MsgSignerBIP44PathInvalid, s)
		}
	}
	ecPrivKey, err := pos.ECPrivKey()
	if err != nil {
		return nil, err
	}
	pkBytes := ecPrivKey.Key.Bytes()
	return secp256k1.NewSecp256k1KeyPair(pkBytes[:])
}
