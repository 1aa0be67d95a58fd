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

package commands

import (
	"context"

	"github.com/kaleido-io/bns/pkg/ethclient"
	"github.com/spf13/cobra"
)

type txFunc func(ctx context.Context, args []string) (*ethclient.TransactionReceipt, error)

// txCmd runs a write and prints its receipt
func (c *cli) txCmd(use, short string, nArgs int, run txFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			receipt, err := run(cmd.Context(), args)
			if err != nil {
				return err
			}
			return c.print(receipt)
		},
	}
}

// queryCmd runs a read and prints the result
func (c *cli) queryCmd(use, short string, nArgs int, run func(ctx context.Context, args []string) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := run(cmd.Context(), args)
			if err != nil {
				return err
			}
			return c.print(result)
		},
	}
}

func (c *cli) tldCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "tld", Short: "Top-level domains"}
	cmd.AddCommand(
		c.txCmd("create <tld>", "Create a top-level domain", 1, func(ctx context.Context, args []string) (*ethclient.TransactionReceipt, error) {
			return c.client.CreateTopLevelDomain(ctx, args[0], nil)
		}),
		c.queryCmd("price <tld>", "Registration price of a top-level domain, in wei", 1, func(ctx context.Context, args []string) (any, error) {
			price, err := c.client.GetTldPrice(ctx, args[0])
			if err != nil {
				return nil, err
			}
			return map[string]string{"tld": args[0], "price": price.String()}, nil
		}),
	)
	return cmd
}

func (c *cli) domainCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "domain", Short: "Domains written domain@tld"}

	var open bool
	register := c.txCmd("register <domain@tld>", "Register a domain, paying the price of its tld", 1, func(ctx context.Context, args []string) (*ethclient.TransactionReceipt, error) {
		return c.client.RegisterDomain(ctx, args[0], open, nil)
	})
	register.Flags().BoolVar(&open, "open", false, "allow anyone to register subdomains")

	cmd.AddCommand(
		register,
		c.queryCmd("owner <domain>", "Owner of a domain", 1, func(ctx context.Context, args []string) (any, error) {
			return c.client.GetDomainOwner(ctx, args[0])
		}),
		c.txCmd("transfer <domain> <address>", "Transfer a domain to a new owner", 2, func(ctx context.Context, args []string) (*ethclient.TransactionReceipt, error) {
			return c.client.TransferDomain(ctx, args[0], args[1], nil)
		}),
		c.txCmd("delete <domain>", "Delete a domain", 1, func(ctx context.Context, args []string) (*ethclient.TransactionReceipt, error) {
			return c.client.DeleteDomain(ctx, args[0], nil)
		}),
		c.queryCmd("content <domain>", "Content pointer of a domain", 1, func(ctx context.Context, args []string) (any, error) {
			return c.client.GetContent(ctx, args[0])
		}),
		c.txCmd("set-content <domain> <content>", "Set the content pointer of a domain", 2, func(ctx context.Context, args []string) (*ethclient.TransactionReceipt, error) {
			return c.client.SetContent(ctx, args[0], args[1], nil)
		}),
		c.txCmd("open <domain>", "Open public subdomain registration", 1, func(ctx context.Context, args []string) (*ethclient.TransactionReceipt, error) {
			return c.client.OpenRegistration(ctx, args[0], nil)
		}),
		c.txCmd("close <domain>", "Close public subdomain registration", 1, func(ctx context.Context, args []string) (*ethclient.TransactionReceipt, error) {
			return c.client.CloseRegistration(ctx, args[0], nil)
		}),
		c.queryCmd("status <domain>", "Whether public subdomain registration is open", 1, func(ctx context.Context, args []string) (any, error) {
			return c.client.GetRegistrationStatus(ctx, args[0])
		}),
		c.txCmd("approve <domain> <address>", "Approve an address to register subdomains", 2, func(ctx context.Context, args []string) (*ethclient.TransactionReceipt, error) {
			return c.client.ApproveToRegister(ctx, args[0], args[1], nil)
		}),
		c.txCmd("disapprove <domain> <address>", "Withdraw approval to register subdomains", 2, func(ctx context.Context, args []string) (*ethclient.TransactionReceipt, error) {
			return c.client.DisapproveToRegister(ctx, args[0], args[1], nil)
		}),
		c.queryCmd("approved <domain> <address>", "Whether an address may register subdomains", 2, func(ctx context.Context, args []string) (any, error) {
			return c.client.CheckApproved(ctx, args[0], args[1])
		}),
	)
	return cmd
}

func (c *cli) subdomainCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "subdomain", Short: "Subdomains written subdomain.domain@tld"}

	var open bool
	register := c.txCmd("register <subdomain.domain@tld>", "Register a subdomain", 1, func(ctx context.Context, args []string) (*ethclient.TransactionReceipt, error) {
		return c.client.RegisterSubdomain(ctx, args[0], open, nil)
	})
	register.Flags().BoolVar(&open, "open", false, "allow anyone to register subdomains of it")

	cmd.AddCommand(
		register,
		c.txCmd("register-for <subdomain.domain@tld> <owner>", "Register a subdomain owned by another address, as the domain owner", 2, func(ctx context.Context, args []string) (*ethclient.TransactionReceipt, error) {
			return c.client.RegisterSubdomainFor(ctx, args[0], args[1], nil)
		}),
		c.txCmd("delete <subdomain.domain@tld>", "Delete a subdomain, as the domain owner", 1, func(ctx context.Context, args []string) (*ethclient.TransactionReceipt, error) {
			return c.client.DeleteSubdomain(ctx, args[0], nil)
		}),
	)
	return cmd
}

func (c *cli) reverseCmd() *cobra.Command {
	return c.queryCmd("reverse <address>", "Domain an address resolves to", 1, func(ctx context.Context, args []string) (any, error) {
		return c.client.ReverseLookup(ctx, args[0])
	})
}
