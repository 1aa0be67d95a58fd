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
)

const (
	tldSeparator       = "@"
	subdomainSeparator = "."
)

// QualifiedDomain is a "domain@tld" name
type QualifiedDomain struct {
	Domain string `json:"domain"`
	TLD    string `json:"tld"`
}

func (qd QualifiedDomain) String() string {
	return qd.Domain + tldSeparator + qd.TLD
}

// QualifiedSubdomain is a "subdomain.domain@tld" name. Domain keeps its "@tld" suffix.
type QualifiedSubdomain struct {
	Subdomain string `json:"subdomain"`
	Domain    string `json:"domain"`
}

func (qs QualifiedSubdomain) String() string {
	return qs.Subdomain + subdomainSeparator + qs.Domain
}

// SplitDomainTLD lower-cases the input and splits it at the last "@".
// Both halves must be non-empty.
func SplitDomainTLD(ctx context.Context, name string) (QualifiedDomain, error) {
	domain, tld, err := splitLast(ctx, name, tldSeparator, msgs.MsgMalformedDomain)
	if err != nil {
		return QualifiedDomain{}, err
	}
	return QualifiedDomain{Domain: domain, TLD: tld}, nil
}

// SplitSubdomainDomain lower-cases the input and splits it at the last ".".
// The domain half is not decomposed further.
func SplitSubdomainDomain(ctx context.Context, name string) (QualifiedSubdomain, error) {
	subdomain, domain, err := splitLast(ctx, name, subdomainSeparator, msgs.MsgMalformedSubdomain)
	if err != nil {
		return QualifiedSubdomain{}, err
	}
	return QualifiedSubdomain{Subdomain: subdomain, Domain: domain}, nil
}

func splitLast(ctx context.Context, name, sep string, errKey i18n.ErrorMessageKey) (string, string, error) {
	lower := strings.ToLower(name)
	i := strings.LastIndex(lower, sep)
	if i <= 0 || i == len(lower)-len(sep) {
		return "", "", &MalformedNameError{
			Name: name,
			err:  i18n.NewError(ctx, errKey, name),
		}
	}
	return lower[:i], lower[i+len(sep):], nil
}
