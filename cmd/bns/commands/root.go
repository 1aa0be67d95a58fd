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

// Package commands is the bns command line, one subcommand per name service operation
package commands

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/kaleido-io/bns/internal/confutil"
	"github.com/kaleido-io/bns/internal/log"
	"github.com/kaleido-io/bns/pkg/bns"
	"github.com/kaleido-io/bns/pkg/bnsconf"
	"github.com/kaleido-io/bns/pkg/ethclient"
	"github.com/kaleido-io/bns/pkg/signer"
	"github.com/spf13/cobra"
)

// commands that do not need a node
const offlineAnnotation = "offline"

type cli struct {
	out io.Writer

	configFile string
	account    string
	url        string
	contract   string
	gas        uint64
	logLevel   string

	ec     ethclient.EthClient
	client *bns.Client
}

func Execute() error {
	return NewRootCmd(os.Stdout).ExecuteContext(context.Background())
}

// NewRootCmd builds the command tree, writing results as JSON to out
func NewRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	root := &cobra.Command{
		Use:               "bns",
		Short:             "Better Name Service client",
		SilenceUsage:      true,
		PersistentPreRunE: c.connect,
		PersistentPostRun: func(_ *cobra.Command, _ []string) { c.close() },
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configFile, "config", "c", "", "YAML config file")
	flags.StringVar(&c.account, "account", "", "caller account: an address, key name, HD path or HD index")
	flags.StringVar(&c.url, "url", "", "JSON/RPC URL of the node (overrides blockchain.http.url)")
	flags.StringVar(&c.contract, "contract", "", "registry contract address")
	flags.Uint64Var(&c.gas, "gas", 0, "gas limit for transactions, 0 to estimate")
	flags.StringVar(&c.logLevel, "log-level", "", "error, warn, info, debug or trace")

	root.AddCommand(
		c.tldCmd(),
		c.domainCmd(),
		c.subdomainCmd(),
		c.storageCmd(),
		c.reverseCmd(),
		c.operationsCmd(),
	)
	return root
}

func (c *cli) loadConfig(cmd *cobra.Command) (*bnsconf.Config, error) {
	conf := &bnsconf.Config{}
	if c.configFile != "" {
		if err := bnsconf.ReadAndParseYAMLFile(cmd.Context(), c.configFile, conf); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("url") {
		conf.Blockchain.HTTP.URL = c.url
	}
	if flags.Changed("account") {
		conf.BNS.Account = &c.account
	}
	if flags.Changed("contract") {
		conf.BNS.ContractAddress = &c.contract
	}
	if flags.Changed("gas") {
		conf.BNS.Gas = &c.gas
	}
	if flags.Changed("log-level") {
		conf.Log.Level = &c.logLevel
	}
	return conf, nil
}

func (c *cli) connect(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[offlineAnnotation] != "" {
		return nil
	}
	ctx := cmd.Context()
	conf, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}
	log.InitConfig(&conf.Log)

	var keymgr ethclient.KeyManager
	if conf.Signer.Enabled() {
		km, err := signer.NewKeyManager(ctx, &conf.Signer)
		if err != nil {
			return err
		}
		keymgr = km
	}
	if c.ec, err = ethclient.NewEthClient(ctx, keymgr, &conf.Blockchain); err != nil {
		return err
	}
	c.client, err = bns.NewDefault(ctx, c.ec, confutil.StringOrEmpty(conf.BNS.Account, ""), &conf.BNS)
	return err
}

func (c *cli) close() {
	if c.ec != nil {
		c.ec.Close()
		c.ec = nil
	}
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
