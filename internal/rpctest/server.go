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

// Package rpctest is a scripted JSON/RPC node for unit tests, served over
// both HTTP and WebSockets.
package rpctest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// Handler receives the raw params of a call, and returns either a result
// to be JSON serialized, or an error that is returned with the given code.
type Handler func(params []json.RawMessage) (any, error)

// RPCError lets a handler control the JSON/RPC error code and data
type RPCError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return e.Message
}

type Server struct {
	t        *testing.T
	server   *httptest.Server
	upgrader websocket.Upgrader

	mux      sync.Mutex
	handlers map[string]Handler
	calls    []string
}

type request struct {
	JSONRpc string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type response struct {
	JSONRpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// NewServer starts a node that answers eth_chainId with the given chain ID,
// plus any handlers registered with On.
func NewServer(t *testing.T, chainID int64) *Server {
	s := &Server{
		t:        t,
		handlers: map[string]Handler{},
	}
	s.On("eth_chainId", func(_ []json.RawMessage) (any, error) {
		return fmt.Sprintf("0x%x", chainID), nil
	})
	s.server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.server.Close)
	return s
}

func (s *Server) On(method string, h Handler) *Server {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.handlers[method] = h
	return s
}

func (s *Server) HTTPURL() string {
	return s.server.URL
}

func (s *Server) WSURL() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http")
}

// Calls returns every method invoked so far, in order
func (s *Server) Calls() []string {
	s.mux.Lock()
	defer s.mux.Unlock()
	return append([]string{}, s.calls...)
}

func (s *Server) CallCount(method string) int {
	count := 0
	for _, c := range s.Calls() {
		if c == method {
			count++
		}
	}
	return count
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		s.serveWS(w, r)
		return
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.dispatch(&req))
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		var req request
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if err := conn.WriteJSON(s.dispatch(&req)); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(req *request) *response {
	s.mux.Lock()
	s.calls = append(s.calls, req.Method)
	h := s.handlers[req.Method]
	s.mux.Unlock()

	res := &response{JSONRpc: "2.0", ID: req.ID}
	if h == nil {
		res.Error = &RPCError{Code: -32601, Message: fmt.Sprintf("method %s not found", req.Method)}
		return res
	}
	result, err := h(req.Params)
	switch e := err.(type) {
	case nil:
		if result == nil {
			// explicit null, which is how nodes report a pending receipt
			result = json.RawMessage("null")
		}
		res.Result = result
	case *RPCError:
		res.Error = e
	default:
		res.Error = &RPCError{Code: -32000, Message: err.Error()}
	}
	return res
}

// Param unmarshals a single param into the supplied pointer, marking the test failed on error
func (s *Server) Param(params []json.RawMessage, i int, v any) {
	if i >= len(params) {
		s.t.Errorf("missing param %d", i)
		return
	}
	if err := json.Unmarshal(params[i], v); err != nil {
		s.t.Errorf("bad param %d: %s", i, err)
	}
}
