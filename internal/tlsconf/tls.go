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

package tlsconf

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/kaleido-io/bns/internal/log"
	"github.com/kaleido-io/bns/internal/msgs"
	"github.com/kaleido-io/bns/pkg/bnsconf"
)

// BuildClientTLSConfig returns nil when TLS is not enabled
func BuildClientTLSConfig(ctx context.Context, config *bnsconf.TLSConfig) (*tls.Config, error) {
	if !config.Enabled {
		return nil, nil
	}

	rootCAs, err := loadRootCAs(ctx, config)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgTLSConfigFailed)
	}
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		RootCAs:            rootCAs,
		InsecureSkipVerify: config.InsecureSkipHostVerify, //nolint:gosec
	}

	// mTLS needs both the cert and key
	var cert tls.Certificate
	switch {
	case config.CertFile != "" && config.KeyFile != "":
		cert, err = tls.LoadX509KeyPair(config.CertFile, config.KeyFile)
	case config.Cert != "" && config.Key != "":
		cert, err = tls.X509KeyPair([]byte(config.Cert), []byte(config.Key))
	default:
		return tlsConfig, nil
	}
	if err != nil {
		return nil, i18n.WrapError(ctx, err, msgs.MsgTLSInvalidKeyPairFiles)
	}
	tlsConfig.GetClientCertificate = func(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
		log.L(ctx).Debugf("Supplying client certificate")
		return &cert, nil
	}
	return tlsConfig, nil
}

func loadRootCAs(ctx context.Context, config *bnsconf.TLSConfig) (*x509.CertPool, error) {
	var caPEM []byte
	switch {
	case config.CAFile != "":
		b, err := os.ReadFile(config.CAFile)
		if err != nil {
			return nil, err
		}
		caPEM = b
	case config.CA != "":
		caPEM = []byte(config.CA)
	default:
		return x509.SystemCertPool()
	}
	rootCAs := x509.NewCertPool()
	if !rootCAs.AppendCertsFromPEM(caPEM) {
		return nil, i18n.NewError(ctx, msgs.MsgTLSInvalidCAFile)
	}
	return rootCAs, nil
}
