// Copyright (c) 2026 John Dewey

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/mdstudio/mdauth/internal/authz"
	"github.com/mdstudio/mdauth/internal/identity"
)

// Bus subjects served by the auth component.
const (
	SubjectSign           = authz.Vendor + ".auth.endpoint.sign"
	SubjectVerify         = authz.Vendor + ".auth.endpoint.verify"
	SubjectLogin          = authz.Vendor + ".auth.endpoint.login"
	SubjectLogout         = authz.Vendor + ".auth.endpoint.logout"
	SubjectAuthorizeRing0 = authz.Vendor + ".auth.endpoint.authorize.ring0"
	SubjectAuthorizeAdmin = authz.Vendor + ".auth.endpoint.authorize.admin"
	SubjectAuthorizeUser  = authz.Vendor + ".auth.endpoint.authorize.user"
	SubjectRing0GetStatus = authz.Vendor + ".auth.endpoint.ring0.get-status"
	SubjectRing0SetStatus = authz.Vendor + ".auth.endpoint.ring0.set-status"
	SubjectClientCreate   = authz.Vendor + ".auth.endpoint.oauth.client.create"
	SubjectClientUsername = authz.Vendor + ".auth.endpoint.oauth.client.getusername"
)

// Server exposes the service over NATS request/reply subjects and serves
// the metrics scrape endpoint.
type Server struct {
	logger  *slog.Logger
	service *Service
	nc      *nats.Conn

	queueGroup string
	metricsSrv *http.Server

	ctx    context.Context
	cancel context.CancelFunc
	subs   []*nats.Subscription
	wg     sync.WaitGroup
}

// NewServer factory to create a new instance.
func NewServer(
	logger *slog.Logger,
	service *Service,
	nc *nats.Conn,
) *Server {
	queueGroup := service.appConfig.NATS.QueueGroup
	if queueGroup == "" {
		queueGroup = "mdauth"
	}

	return &Server{
		logger:     logger,
		service:    service,
		nc:         nc,
		queueGroup: queueGroup,
	}
}

type signRequest struct {
	Claims   map[string]any `json:"claims"`
	AuthRole string         `json:"authrole"`
	AuthID   string         `json:"authid"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

type loginRequest struct {
	Realm   string       `json:"realm"`
	AuthID  string       `json:"authid"`
	Details LoginDetails `json:"details"`
}

type logoutRequest struct {
	AuthID  string `json:"authid"`
	Session string `json:"session"`
}

type authorizeRequest struct {
	Session SessionInfo `json:"session"`
	URI     string      `json:"uri"`
	Action  string      `json:"action"`
}

type clientCreateRequest struct {
	AuthID string                      `json:"authid"`
	Grants identity.ClientGrantRequest `json:"grants"`
}

type clientUsernameRequest struct {
	ClientID string `json:"clientId"`
}

type clientUsernameReply struct {
	Username string `json:"username,omitempty"`
}

type statusRequest struct {
	// Claims is a signed token proving the caller's identity; only members
	// of the platform group may touch the status board.
	Claims    string `json:"claims"`
	Component string `json:"component"`
	Status    bool   `json:"status"`
}

type errorReply struct {
	Error string `json:"error"`
}

// Start subscribes all endpoints without blocking. Call Stop to shut down.
func (s *Server) Start() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info(
		"starting auth service",
		slog.String("queue_group", s.queueGroup),
		slog.String("realm", s.service.appConfig.Auth.Realm),
	)

	handlers := map[string]nats.MsgHandler{
		SubjectSign:           s.handleSign,
		SubjectVerify:         s.handleVerify,
		SubjectLogin:          s.handleLogin,
		SubjectLogout:         s.handleLogout,
		SubjectAuthorizeRing0: s.handleAuthorizeRing0,
		SubjectAuthorizeAdmin: s.handleAuthorizeAdmin,
		SubjectAuthorizeUser:  s.handleAuthorizeUser,
		SubjectRing0GetStatus: s.handleGetStatus,
		SubjectRing0SetStatus: s.handleSetStatus,
		SubjectClientCreate:   s.handleClientCreate,
		SubjectClientUsername: s.handleClientUsername,
	}

	for subject, handler := range handlers {
		sub, err := s.nc.QueueSubscribe(subject, s.queueGroup, s.tracked(handler))
		if err != nil {
			s.logger.Error(
				"failed to subscribe",
				slog.String("subject", subject),
				slog.String("error", err.Error()),
			)
			continue
		}
		s.subs = append(s.subs, sub)
	}

	s.startMetrics()

	s.logger.Info("auth service started successfully")
}

// Stop gracefully shuts down the server, waiting for in-flight handlers to
// finish or the context deadline to expire.
func (s *Server) Stop(
	ctx context.Context,
) {
	s.logger.Info("auth service shutting down")
	s.cancel()

	for _, sub := range s.subs {
		_ = sub.Drain()
	}
	if s.metricsSrv != nil {
		_ = s.metricsSrv.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("auth service stopped gracefully")
	case <-ctx.Done():
		s.logger.Warn("auth service shutdown timed out")
	}
}

// tracked wraps a handler so shutdown can wait for in-flight requests.
func (s *Server) tracked(
	handler nats.MsgHandler,
) nats.MsgHandler {
	return func(msg *nats.Msg) {
		s.wg.Add(1)
		defer s.wg.Done()

		handler(msg)
	}
}

func (s *Server) startMetrics() {
	addr := s.service.appConfig.Metrics.ListenAddr
	if addr == "" {
		return
	}

	path := s.service.appConfig.Metrics.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, s.service.metrics.Handler())
	s.metricsSrv = &http.Server{Addr: addr, Handler: mux}

	s.logger.Info(
		"serving metrics",
		slog.String("addr", addr),
		slog.String("path", path),
	)

	go func() {
		if err := s.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
}

// respond marshals v and replies; marshal failures are logged, not surfaced.
func (s *Server) respond(
	msg *nats.Msg,
	v any,
) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to marshal reply", slog.String("error", err.Error()))
		return
	}

	if err := msg.Respond(data); err != nil {
		s.logger.Error("failed to respond", slog.String("error", err.Error()))
	}
}

func (s *Server) respondError(
	msg *nats.Msg,
	err error,
) {
	s.respond(msg, errorReply{Error: err.Error()})
}

func (s *Server) handleSign(
	msg *nats.Msg,
) {
	var req signRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondError(msg, err)
		return
	}

	token, err := s.service.SignClaims(s.ctx, req.Claims, req.AuthRole, req.AuthID)
	if err != nil {
		s.respondError(msg, err)
		return
	}
	if token == "" {
		// Soft deny, the caller receives null rather than an error.
		s.respond(msg, nil)
		return
	}

	s.respond(msg, token)
}

func (s *Server) handleVerify(
	msg *nats.Msg,
) {
	var req verifyRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondError(msg, err)
		return
	}

	s.respond(msg, s.service.VerifyClaims(req.Token))
}

func (s *Server) handleLogin(
	msg *nats.Msg,
) {
	var req loginRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondError(msg, err)
		return
	}

	ticket, err := s.service.Login(s.ctx, req.Realm, req.AuthID, req.Details)
	if err != nil {
		s.respondError(msg, err)
		return
	}
	if ticket == nil {
		s.respond(msg, false)
		return
	}

	s.respond(msg, ticket)
}

func (s *Server) handleLogout(
	msg *nats.Msg,
) {
	var req logoutRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondError(msg, err)
		return
	}

	message, err := s.service.Logout(s.ctx, req.AuthID, req.Session)
	if err != nil {
		s.respondError(msg, err)
		return
	}

	s.respond(msg, message)
}

func (s *Server) handleAuthorizeRing0(
	msg *nats.Msg,
) {
	var req authorizeRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondError(msg, err)
		return
	}

	decision := s.service.AuthorizeRing0(req.Session, req.URI, req.Action)
	if decision == nil {
		s.respond(msg, false)
		return
	}

	s.respond(msg, decision)
}

func (s *Server) handleAuthorizeAdmin(
	msg *nats.Msg,
) {
	var req authorizeRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondError(msg, err)
		return
	}

	decision := s.service.AuthorizeAdmin(req.Session, req.URI, req.Action)
	if decision == nil {
		s.respond(msg, false)
		return
	}

	s.respond(msg, decision)
}

func (s *Server) handleAuthorizeUser(
	msg *nats.Msg,
) {
	var req authorizeRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondError(msg, err)
		return
	}

	decision, err := s.service.AuthorizeUser(s.ctx, req.Session, req.URI, req.Action)
	if err != nil {
		s.respondError(msg, err)
		return
	}
	if decision == nil {
		s.respond(msg, false)
		return
	}

	s.respond(msg, decision)
}

// statusCaller verifies the claims token on a status request and returns the
// caller username when it belongs to the platform group.
func (s *Server) statusCaller(
	req statusRequest,
	uri string,
) (string, bool) {
	result := s.service.VerifyClaims(req.Claims)
	if result.Claims == nil {
		return "", false
	}

	group, _ := result.Claims["group"].(string)
	username, _ := result.Claims["username"].(string)
	if group != authz.Vendor {
		s.logger.Warn(
			"rejected status request",
			slog.String("username", username),
			slog.String("uri", uri),
		)
		return "", false
	}

	return username, true
}

func (s *Server) handleSetStatus(
	msg *nats.Msg,
) {
	var req statusRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondError(msg, err)
		return
	}

	// Components report their own status, named by their claim identity.
	username, ok := s.statusCaller(req, SubjectRing0SetStatus)
	if !ok {
		s.respond(msg, false)
		return
	}

	s.service.SetComponentStatus(username, req.Status)
	s.respond(msg, true)
}

func (s *Server) handleClientCreate(
	msg *nats.Msg,
) {
	var req clientCreateRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondError(msg, err)
		return
	}

	credentials, err := s.service.CreateClient(s.ctx, req.AuthID, req.Grants)
	if err != nil {
		s.respondError(msg, err)
		return
	}

	s.respond(msg, credentials)
}

func (s *Server) handleClientUsername(
	msg *nats.Msg,
) {
	var req clientUsernameRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondError(msg, err)
		return
	}

	username, err := s.service.ClientUsername(s.ctx, req.ClientID)
	if err != nil {
		s.respondError(msg, err)
		return
	}

	s.respond(msg, clientUsernameReply{Username: username})
}

func (s *Server) handleGetStatus(
	msg *nats.Msg,
) {
	var req statusRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondError(msg, err)
		return
	}

	if _, ok := s.statusCaller(req, SubjectRing0GetStatus); !ok {
		s.respond(msg, false)
		return
	}

	s.respond(msg, s.service.ComponentStatus(req.Component))
}
