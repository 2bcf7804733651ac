package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/chatgate/internal/auth"
	"github.com/charlesng35/chatgate/internal/loginoptions"
	"github.com/charlesng35/chatgate/internal/presenter"
	"github.com/charlesng35/chatgate/internal/realtime"
	"github.com/charlesng35/chatgate/internal/settings"
	"github.com/charlesng35/chatgate/pkg/errors"
	"github.com/charlesng35/chatgate/pkg/response"
	"github.com/charlesng35/chatgate/pkg/validator"
)

// PresenterFactory returns a fresh presenter for one probe, reporting to view.
type PresenterFactory func(view presenter.View) *presenter.Presenter

// ServerHandler probes chat servers on behalf of clients.
type ServerHandler struct {
	newPresenter PresenterFactory
	store        settings.Store
}

// NewServerHandler constructs a ServerHandler instance.
func NewServerHandler(factory PresenterFactory, store settings.Store) *ServerHandler {
	return &ServerHandler{newPresenter: factory, store: store}
}

type serverQuery struct {
	URL string `form:"url" validate:"required,serverurl"`
}

// CheckResult is the payload returned by Check.
type CheckResult struct {
	SessionID    string              `json:"session_id"`
	ServerURL    string              `json:"server_url"`
	CanonicalURL string              `json:"canonical_url"`
	Version      string              `json:"version,omitempty"`
	VersionState presenter.State     `json:"version_state"`
	AuthState    presenter.AuthState `json:"auth_state"`
	Signals      []string            `json:"signals"`
	AuthOptions  auth.Options        `json:"auth_options"`
	LoginOptions loginoptions.View   `json:"login_options"`
}

// GET /api/servers/check?url=
func (h *ServerHandler) Check(c *gin.Context) {
	var query serverQuery
	if !bindQuery(c, &query) {
		return
	}

	report, err := h.newPresenter(presenter.NopView{}).Probe(requestContext(c), query.URL)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, NewCheckResult(report))
}

// GET /api/servers/watch?url= (WebSocket)
//
// Streams each presenter signal as it happens, then a final report frame.
func (h *ServerHandler) Watch(c *gin.Context) {
	var query serverQuery
	if !bindQuery(c, &query) {
		return
	}

	stream, err := realtime.Accept(c.Writer, c.Request)
	if err != nil {
		// the upgrader has already answered the request
		return
	}
	defer stream.Close()

	ctx, cancel := context.WithCancel(requestContext(c))
	defer cancel()
	go func() {
		select {
		case <-stream.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	report, err := h.newPresenter(realtime.NewView(stream)).Probe(ctx, query.URL)
	if err != nil {
		info := errors.FromError(err)
		stream.Send(realtime.Message{Event: realtime.EventError, Data: response.ErrorInfo{
			Code:      info.Code,
			Message:   info.Message,
			Retryable: info.Retryable,
		}})
		return
	}
	stream.Send(realtime.Message{Event: realtime.EventReport, Data: NewCheckResult(report)})
}

// NewCheckResult combines a probe report with its login-options plan.
func NewCheckResult(report presenter.Report) CheckResult {
	return CheckResult{
		SessionID:    report.SessionID,
		ServerURL:    report.ServerURL,
		CanonicalURL: report.CanonicalURL,
		Version:      report.Version,
		VersionState: report.VersionState,
		AuthState:    report.AuthState,
		Signals:      report.Signals,
		AuthOptions:  report.AuthOptions,
		LoginOptions: loginoptions.Plan(report.AuthOptions),
	}
}

// GET /api/servers/settings?url=
func (h *ServerHandler) Settings(c *gin.Context) {
	var query serverQuery
	if !bindQuery(c, &query) {
		return
	}

	serverURL, err := validator.NormalizeServerURL(query.URL)
	if err != nil {
		response.Error(c, errors.NewBadRequest(err.Error()))
		return
	}

	snap, ok, err := h.store.Get(requestContext(c), serverURL)
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	if !ok {
		response.Error(c, errors.ErrNotFound.WithMessage("no cached settings for "+serverURL))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"server_url": serverURL, "settings": snap})
}
