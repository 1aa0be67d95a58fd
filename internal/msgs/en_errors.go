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

package msgs

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"golang.org/x/text/language"
)

const bnsPrefix = "BN01"

var registerOnce sync.Once
var ffe = func(key, translation string, statusHint ...int) i18n.ErrorMessageKey {
	registerOnce.Do(func() {
		i18n.RegisterPrefix(bnsPrefix, "Better Name Service client")
	})
	if !strings.HasPrefix(key, bnsPrefix) {
		panic(fmt.Errorf("must have prefix '%s': %s", bnsPrefix, key))
	}
	return i18n.FFE(language.AmericanEnglish, key, translation, statusHint...)
}

var (
	// Names BN0100XX
	MsgMalformedDomain    = ffe("BN010000", "Domain string must include tld. Example: domain@tld (received '%s')")
	MsgMalformedSubdomain = ffe("BN010001", "Subdomain string must include domain and tld. Example: subdomain.domain@tld (received '%s')")

	// Client BN0101XX
	MsgClientFunctionNotInABI     = ffe("BN010100", "Contract ABI does not provide method '%s' required by operation %s")
	MsgClientInvalidAddress       = ffe("BN010101", "Invalid address '%s'")
	MsgClientStorageKeysMissing   = ffe("BN010102", "At least one storage key is required")
	MsgClientStorageEmpty         = ffe("BN010103", "At least one storage key/value pair is required")
	MsgClientArgCountMismatch     = ffe("BN010104", "Operation %s expects %d arguments (%s), received %d")
	MsgClientRemoteExecution      = ffe("BN010105", "%s")
	MsgClientTransactionReverted  = ffe("BN010106", "Transaction %s reverted: %s")
	MsgClientAccountMissing       = ffe("BN010107", "Caller account is required")
	MsgClientDecodeResult         = ffe("BN010108", "Failed to decode result of %s")
	MsgClientUnknownOperation     = ffe("BN010109", "Unknown operation %d")
	MsgClientABIFileRead          = ffe("BN010110", "Failed to read ABI file '%s'")
	MsgClientStorageCountMismatch = ffe("BN010111", "Requested %d storage keys, contract returned %d values")

	// EthClient BN0102XX
	MsgEthClientABIJson               = ffe("BN010200", "JSON ABI parsing failed")
	MsgEthClientFunctionNotFound      = ffe("BN010201", "Function %q not found on ABI")
	MsgEthClientMissingInput          = ffe("BN010202", "Input missing")
	MsgEthClientMissingTo             = ffe("BN010203", "To address missing")
	MsgEthClientMissingFrom           = ffe("BN010204", "From address missing")
	MsgEthClientMissingOutput         = ffe("BN010205", "Output missing")
	MsgEthClientInvalidInput          = ffe("BN010206", "Unable to convert to ABI function input (func=%s)")
	MsgEthClientInvalidTXVersion      = ffe("BN010207", "Invalid TX version '%s'")
	MsgEthClientChainIDFailed         = ffe("BN010208", "Failed to query chain ID")
	MsgEthClientURLMissing            = ffe("BN010209", "Either an HTTP or a WebSocket URL must be configured for the blockchain connection")
	MsgEthClientReceiptTimeout        = ffe("BN010210", "Receipt for transaction %s not available after %d attempts")
	MsgEthClientReturnValueNotDecoded = ffe("BN010211", "Error return value for custom error: %s")
	MsgEthClientReturnValueNotAvail   = ffe("BN010212", "Error return value unavailable")
	MsgEthClientNoKeyManager          = ffe("BN010213", "Identifier '%s' is not an address, and no key manager is configured to resolve it")
	MsgEthClientInvalidGasPrice       = ffe("BN010214", "Invalid gas price '%s'")
	MsgEthClientArgCount              = ffe("BN010215", "Function %s expects %d inputs, received %d")

	// Signer BN0103XX
	MsgSignerKeyNotFound        = ffe("BN010300", "Key '%s' not found")
	MsgSignerInvalidPrivateKey  = ffe("BN010301", "Invalid private key for '%s'")
	MsgSignerInvalidMnemonic    = ffe("BN010302", "Invalid BIP-39 mnemonic")
	MsgSignerBIP44PathInvalid   = ffe("BN010303", "Invalid BIP-44 derivation path segment '%s'")
	MsgSignerBIP32IndexTooLarge = ffe("BN010304", "BIP-32 index too large %d")
	MsgSignerPayloadNotHash     = ffe("BN010305", "Signing payload must be a 32 byte hash (length=%d)")
	MsgSignerInvalidKeyHandle   = ffe("BN010306", "Invalid key handle '%s'")
	MsgSignerNoHDWallet         = ffe("BN010307", "Key '%s' requires HD derivation, but no mnemonic is configured")
	MsgSignerAddressNotManaged  = ffe("BN010308", "Address '%s' does not match any managed key")

	// Config BN0104XX
	MsgConfigFileMissing    = ffe("BN010400", "Config file not found at path: %s")
	MsgConfigFileReadError  = ffe("BN010401", "Failed to read config file %s with error: %s")
	MsgConfigFileParseError = ffe("BN010402", "Failed to parse config file: %s")

	// RPC client BN0105XX
	MsgRPCClientInvalidWebSocketURL = ffe("BN010500", "Invalid WebSocket URL: %s")
	MsgRPCClientInvalidHTTPURL      = ffe("BN010501", "Invalid HTTP URL: %s")
	MsgTLSInvalidCAFile             = ffe("BN010502", "Invalid CA certificates file")
	MsgTLSConfigFailed              = ffe("BN010503", "Failed to initialize TLS configuration")
	MsgTLSInvalidKeyPairFiles       = ffe("BN010504", "Invalid certificate and key pair files")

	// Retry BN0106XX
	MsgContextCanceled = ffe("BN010600", "Context canceled")

	// CLI BN0107XX
	MsgCLIInvalidKeyValue = ffe("BN010700", "Storage entries must be written key=value (received '%s')")
)
