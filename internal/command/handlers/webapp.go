package handlers

import (
	"context"

	"github.com/tavisham/lobbygate/internal/command"
	"github.com/tavisham/lobbygate/internal/extension"
	"github.com/tavisham/lobbygate/internal/session"
)

// webAppHandler runs one named web app. The program is evaluated fresh
// on every call: prepare(method) first, then the method function with
// the request's generic parameters.
type webAppHandler struct {
	deps *Deps
	app  string
}

func (h *webAppHandler) Execute(ctx context.Context, req *command.Request, _ *session.Session) command.Response {
	method := req.String("method")
	if method == "" {
		return command.Fail("Missing method")
	}

	source, ok := h.deps.WebApps.Source(h.app)
	if !ok {
		return command.Fail("Unknown web app")
	}

	resp := command.NewResponse()
	host := extension.NewHost(extension.Env{
		Now: func() int64 { return h.deps.Clock.Now().Unix() },
		Store: func(name string) extension.StoreReader {
			return resolveStore(h.deps, name)
		},
		GetResponse: resp.StringField,
		SetResponse: func(key, value string) { resp.Set(key, value) },
	})

	if err := host.Eval(source, h.app); err != nil {
		h.deps.Logger.Error("web app load failed", "app", h.app, "error", err)
		return command.Fail("Web app failed")
	}
	if err := host.CallPrepare(ctx, method); err != nil {
		h.deps.Logger.Error("web app prepare failed", "app", h.app, "method", method, "error", err)
		return command.Fail("Web app failed")
	}

	params := req.Params("method", "username", "session_username", "challenge")
	if err := host.CallMethod(ctx, method, params); err != nil {
		h.deps.Logger.Error("web app method failed", "app", h.app, "method", method, "error", err)
		return command.Fail("Web app failed")
	}
	return resp
}
