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
	"fmt"
	"strings"
)

// Operation is one of the fixed set of contract methods the client invokes
type Operation int

const (
	OpGetTldPrice Operation = iota
	OpReverseLookup
	OpGetDomainOwner
	OpGetContent
	OpGetStorageSingle
	OpGetStorageMany
	OpIsRegistrationOpen
	OpIsApprovedToRegister
	OpCreateTopLevelDomain
	OpRegisterDomain
	OpRegisterSubdomain
	OpRegisterSubdomainFor
	OpOpenRegistration
	OpCloseRegistration
	OpApproveToRegister
	OpDisapproveToRegister
	OpTransferDomain
	OpSetContent
	OpSetStorageSingle
	OpSetStorageMany
	OpDeleteDomain
	OpDeleteSubdomain

	numOperations
)

// OperationInfo is the fixed remote binding of an Operation
type OperationInfo struct {
	Name     string   `json:"name"`
	Method   string   `json:"method"`
	Args     []string `json:"args"`
	ReadOnly bool     `json:"readOnly"`
}

var operations = [numOperations]OperationInfo{
	OpGetTldPrice:          {Name: "GetTldPrice", Method: "getTldPrice", Args: []string{"tld"}, ReadOnly: true},
	OpReverseLookup:        {Name: "ReverseLookup", Method: "reverseLookup", Args: []string{"address"}, ReadOnly: true},
	OpGetDomainOwner:       {Name: "GetDomainOwner", Method: "getDomainOwner", Args: []string{"domain"}, ReadOnly: true},
	OpGetContent:           {Name: "GetContent", Method: "getContent", Args: []string{"domain"}, ReadOnly: true},
	OpGetStorageSingle:     {Name: "GetStorageSingle", Method: "getStorageSingle", Args: []string{"domain", "key"}, ReadOnly: true},
	OpGetStorageMany:       {Name: "GetStorageMany", Method: "getStorageMany", Args: []string{"domain", "keys"}, ReadOnly: true},
	OpIsRegistrationOpen:   {Name: "GetRegistrationStatus", Method: "isPublicDomainRegistrationOpen", Args: []string{"domain"}, ReadOnly: true},
	OpIsApprovedToRegister: {Name: "CheckApproved", Method: "isApprovedToRegister", Args: []string{"domain", "address"}, ReadOnly: true},
	OpCreateTopLevelDomain: {Name: "CreateTopLevelDomain", Method: "createTopLevelDomain", Args: []string{"tld"}},
	OpRegisterDomain:       {Name: "RegisterDomain", Method: "registerDomain", Args: []string{"domain", "tld", "open"}},
	OpRegisterSubdomain:    {Name: "RegisterSubdomain", Method: "registerSubdomain", Args: []string{"subdomain", "domain", "open"}},
	OpRegisterSubdomainFor: {Name: "RegisterSubdomainFor", Method: "registerSubdomainAsDomainOwner", Args: []string{"subdomain", "domain", "owner"}},
	OpOpenRegistration:     {Name: "OpenRegistration", Method: "openPublicDomainRegistration", Args: []string{"domain"}},
	OpCloseRegistration:    {Name: "CloseRegistration", Method: "closePublicDomainRegistration", Args: []string{"domain"}},
	OpApproveToRegister:    {Name: "ApproveToRegister", Method: "approveForSubdomain", Args: []string{"domain", "address"}},
	OpDisapproveToRegister: {Name: "DisapproveToRegister", Method: "disapproveForSubdomain", Args: []string{"domain", "address"}},
	OpTransferDomain:       {Name: "TransferDomain", Method: "transferDomain", Args: []string{"domain", "address"}},
	OpSetContent:           {Name: "SetContent", Method: "setContent", Args: []string{"domain", "content"}},
	OpSetStorageSingle:     {Name: "SetStorageSingle", Method: "setDomainStorageSingle", Args: []string{"domain", "key", "value"}},
	OpSetStorageMany:       {Name: "SetStorageMany", Method: "setDomainStorageMany", Args: []string{"domain", "pairs"}},
	OpDeleteDomain:         {Name: "DeleteDomain", Method: "deleteDomain", Args: []string{"domain"}},
	OpDeleteSubdomain:      {Name: "DeleteSubdomain", Method: "deleteSubdomainAsDomainOwner", Args: []string{"subdomain", "domain"}},
}

// Operations lists every operation in declaration order
func Operations() []Operation {
	ops := make([]Operation, numOperations)
	for i := range ops {
		ops[i] = Operation(i)
	}
	return ops
}

func (op Operation) Valid() bool {
	return op >= 0 && op < numOperations
}

func (op Operation) Info() OperationInfo {
	return operations[op]
}

func (op Operation) Method() string {
	return operations[op].Method
}

func (op Operation) ReadOnly() bool {
	return operations[op].ReadOnly
}

func (op Operation) String() string {
	if !op.Valid() {
		return fmt.Sprintf("Operation(%d)", int(op))
	}
	return operations[op].Name
}

func (op Operation) argList() string {
	return strings.Join(operations[op].Args, ",")
}
