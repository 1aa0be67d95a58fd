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
	"testing"

	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/kaleido-io/bns/internal/confutil"
	"github.com/kaleido-io/bns/pkg/bnsconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

const (
	testMnemonic   = "extra monster happy tone improve slight duck equal sponsor fruit sister rate very bulb reopen mammal venture pull just motion faculty grab tenant kind"
	testHDAddress0 = "0x6331ccb948aaf903a69d6054fd718062bd0d535c"
	testStaticKey  = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testStaticAddr = "0x2c7536e3605d9c16a7a3d7b1898e529396a65c23"
)

func keccak(data string) []byte {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(data))
	return h.Sum(nil)
}

func newTestKeyManager(t *testing.T) *KeyManager {
	km, err := NewKeyManager(context.Background(), &bnsconf.SignerConfig{
		Keys: map[string]string{
			"deployer": testStaticKey,
		},
		Mnemonic:     confutil.P(testMnemonic),
		HDPathPrefix: confutil.P(" m / 44' / 60' / 0' / 0 "),
	})
	require.NoError(t, err)
	return km
}

func TestResolveStaticKey(t *testing.T) {
	ctx := context.Background()
	km := newTestKeyManager(t)

	handle, addr, err := km.ResolveKey(ctx, "deployer")
	require.NoError(t, err)
	assert.Equal(t, "deployer", handle)
	assert.Equal(t, testStaticAddr, addr.String())

	handle, addr, err = km.ResolveKey(ctx, "0x2C7536E3605D9C16a7a3D7b1898e529396a65c23")
	require.NoError(t, err)
	assert.Equal(t, "deployer", handle)
	assert.Equal(t, testStaticAddr, addr.String())

	sig, err := km.Sign(ctx, handle, keccak("some data"))
	require.NoError(t, err)
	assert.NotNil(t, sig.R)
	assert.NotNil(t, sig.S)
}

func TestResolveHDKey(t *testing.T) {
	ctx := context.Background()
	km := newTestKeyManager(t)

	handle, addr, err := km.ResolveKey(ctx, "0")
	require.NoError(t, err)
	assert.Equal(t, "m/44'/60'/0'/0/0", handle)
	assert.Equal(t, testHDAddress0, addr.String())

	handle2, addr2, err := km.ResolveKey(ctx, "m/44'/60'/0'/0/0")
	require.NoError(t, err)
	assert.Equal(t, handle, handle2)
	assert.Equal(t, addr, addr2)

	handle3, _, err := km.ResolveKey(ctx, testHDAddress0)
	require.NoError(t, err)
	assert.Equal(t, handle, handle3)

	_, addr1, err := km.ResolveKey(ctx, "1")
	require.NoError(t, err)
	assert.NotEqual(t, addr, addr1)

	sig, err := km.Sign(ctx, handle, keccak("some data"))
	require.NoError(t, err)
	assert.NotNil(t, sig.R)
}

func TestResolveErrors(t *testing.T) {
	ctx := context.Background()
	km := newTestKeyManager(t)

	_, _, err := km.ResolveKey(ctx, "unknown")
	assert.Regexp(t, "BN010300", err)

	_, _, err = km.ResolveKey(ctx, ethtypes.MustNewAddress("0x1111111111111111111111111111111111111111").String())
	assert.Regexp(t, "BN010308", err)

	_, _, err = km.ResolveKey(ctx, "m/wrong")
	assert.Regexp(t, "BN010303", err)

	_, _, err = km.ResolveKey(ctx, "m/2147483648")
	assert.Regexp(t, "BN010304", err)

	_, _, err = km.ResolveKey(ctx, "m")
	assert.Regexp(t, "BN010300", err)
}

func TestNoHDWallet(t *testing.T) {
	ctx := context.Background()
	km, err := NewKeyManager(ctx, &bnsconf.SignerConfig{})
	require.NoError(t, err)

	_, _, err = km.ResolveKey(ctx, "0")
	assert.Regexp(t, "BN010307", err)

	_, _, err = km.ResolveKey(ctx, "m/44'/60'/0'/0/0")
	assert.Regexp(t, "BN010307", err)

	_, _, err = km.ResolveKey(ctx, testHDAddress0)
	assert.Regexp(t, "BN010308", err)

	_, err = km.Sign(ctx, "m/44'/60'/0'/0/0", keccak("data"))
	assert.Regexp(t, "BN010306", err)
}

func TestSignErrors(t *testing.T) {
	ctx := context.Background()
	km := newTestKeyManager(t)

	_, err := km.Sign(ctx, "deployer", []byte("not a hash"))
	assert.Regexp(t, "BN010305", err)

	_, err = km.Sign(ctx, "nope", keccak("data"))
	assert.Regexp(t, "BN010306", err)

	_, err = km.Sign(ctx, "m/bad", keccak("data"))
	assert.Regexp(t, "BN010303", err)
}

func TestBadConfig(t *testing.T) {
	ctx := context.Background()
	_, err := NewKeyManager(ctx, &bnsconf.SignerConfig{
		Keys: map[string]string{"bad": "0x1234"},
	})
	assert.Regexp(t, "BN010301", err)

	_, err = NewKeyManager(ctx, &bnsconf.SignerConfig{
		Mnemonic: confutil.P("not a valid mnemonic"),
	})
	assert.Regexp(t, "BN010302", err)
}
