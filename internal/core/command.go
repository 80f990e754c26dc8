// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/samber/oops"

	"github.com/holomush/itemcore/internal/world"
	"github.com/holomush/itemcore/pkg/errutil"
)

// Request operations.
const (
	OpLogin    = "login"
	OpLogout   = "logout"
	OpSave     = "save"
	OpLoot     = "loot"
	OpCall     = "call"
	OpSessions = "sessions"
)

// Error codes for malformed requests.
const (
	CodeBadRequest = "CORE_BAD_REQUEST"
	CodeUnknownOp  = "CORE_UNKNOWN_OP"
	CodeServe      = "CORE_SERVE"
	CodeInternal   = "CORE_INTERNAL"
)

// DefaultRequestSubject is where the serve command answers requests.
const DefaultRequestSubject = "itemcore.engine"

// DefaultRequestTimeout bounds a single request served over NATS.
const DefaultRequestTimeout = 5 * time.Second

// Request is a JSON engine request.
type Request struct {
	Op       string   `json:"op"`
	Player   string   `json:"player,omitempty"`
	Name     string   `json:"name,omitempty"`
	X        int      `json:"x,omitempty"`
	Y        int      `json:"y,omitempty"`
	Z        int8     `json:"z,omitempty"`
	Loot     string   `json:"loot,omitempty"`
	Ground   bool     `json:"ground,omitempty"`
	Function string   `json:"function,omitempty"`
	Args     []string `json:"args,omitempty"`
}

// Response is the JSON reply to a Request.
type Response struct {
	OK       bool          `json:"ok"`
	Code     string        `json:"code,omitempty"`
	Error    string        `json:"error,omitempty"`
	Count    int           `json:"count,omitempty"`
	Sessions []SessionInfo `json:"sessions,omitempty"`
}

// Handle runs one request. Failures are reported in the response.
func (e *Engine) Handle(ctx context.Context, req Request) Response {
	var (
		resp Response
		err  error
	)
	switch req.Op {
	case OpLogin:
		name := req.Name
		if name == "" {
			name = req.Player
		}
		err = e.Login(ctx, req.Player, name, world.Position{X: req.X, Y: req.Y, Z: req.Z})
	case OpLogout:
		err = e.Logout(ctx, req.Player)
	case OpSave:
		resp.Count, err = e.SaveAll(ctx)
	case OpLoot:
		resp.Count, err = e.Loot(ctx, req.Player, req.Loot, req.Ground)
	case OpCall:
		if req.Function == "" {
			err = oops.Code(CodeBadRequest).Errorf("function is required")
			break
		}
		err = e.Invoke(ctx, req.Player, req.Function, req.Args...)
	case OpSessions:
		resp.Sessions, err = e.Sessions(ctx)
	default:
		err = oops.Code(CodeUnknownOp).With("op", req.Op).Errorf("unknown op %q", req.Op)
	}
	if err != nil {
		resp.Code = errorCode(err)
		resp.Error = err.Error()
		return resp
	}
	resp.OK = true
	return resp
}

func errorCode(err error) string {
	if code := errutil.Code(err); code != "" {
		return code
	}
	return CodeInternal
}

// ServeRequests answers JSON requests on subject until the returned stop
// function is called.
func ServeRequests(nc *nats.Conn, subject string, e *Engine) (func(), error) {
	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		var resp Response
		var req Request
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			resp = Response{Code: CodeBadRequest, Error: err.Error()}
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), DefaultRequestTimeout)
			resp = e.Handle(ctx, req)
			cancel()
		}
		data, err := json.Marshal(resp)
		if err != nil {
			e.logger.Error("encoding response", "op", req.Op, "error", err)
			return
		}
		if err := msg.Respond(data); err != nil {
			e.logger.Warn("response not sent", "op", req.Op, "error", err)
		}
	})
	if err != nil {
		return nil, oops.Code(CodeServe).With("subject", subject).Wrap(err)
	}
	e.logger.Info("serving engine requests", slog.String("subject", subject))
	return func() { _ = sub.Unsubscribe() }, nil
}
