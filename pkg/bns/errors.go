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

// Prefixes that nodes put in front of a contract's revert reason.
// Ganache uses the first, geth and most other clients the second.
var remoteExecutionPrefixes = []string{
	"VM Exception while processing transaction: ",
	"execution reverted: ",
}

// MalformedNameError is returned when a qualified name is missing its separator
type MalformedNameError struct {
	Name string
	err  error
}

func (e *MalformedNameError) Error() string {
	return e.err.Error()
}

func (e *MalformedNameError) Unwrap() error {
	return e.err
}

// RemoteExecutionError is returned when the contract rejects a call or
// transaction. Message has the node's prefix removed.
type RemoteExecutionError struct {
	Message string
	Method  string
	// set when the transaction was mined and reverted
	TransactionHash string
	err             error
}

func (e *RemoteExecutionError) Error() string {
	return e.err.Error()
}

func (e *RemoteExecutionError) Unwrap() error {
	return e.err
}

func newRemoteExecutionError(ctx context.Context, method, message string) *RemoteExecutionError {
	return &RemoteExecutionError{
		Message: message,
		Method:  method,
		err:     i18n.NewError(ctx, msgs.MsgClientRemoteExecution, message),
	}
}

// normalizeError strips a known execution failure prefix, and everything
// before it, into a RemoteExecutionError. Anything else is returned unchanged.
func normalizeError(ctx context.Context, method string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, prefix := range remoteExecutionPrefixes {
		if i := strings.Index(msg, prefix); i >= 0 {
			return newRemoteExecutionError(ctx, method, msg[i+len(prefix):])
		}
	}
	return err
}

func revertedError(ctx context.Context, method, txHash, reason string) *RemoteExecutionError {
	return &RemoteExecutionError{
		Message:         reason,
		Method:          method,
		TransactionHash: txHash,
		err:             i18n.NewError(ctx, msgs.MsgClientTransactionReverted, txHash, reason),
	}
}
