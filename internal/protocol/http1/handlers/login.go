package handlers

import (
	"context"

	"github.com/marmos91/coyote/internal/logger"
	"github.com/marmos91/coyote/internal/protocol/http1"
	"github.com/marmos91/coyote/internal/session"
	"github.com/marmos91/coyote/pkg/store/asset"
	"github.com/marmos91/coyote/pkg/store/user"
)

// Form field names.
const (
	FieldAccount  = "account"
	FieldPassword = "password"
	FieldEmail    = "email"
)

// Login renders the login form and authenticates credentials posted to it.
//
// Every authentication failure redirects to the same 401 page so clients
// cannot tell an unknown account from a wrong password.
type Login struct {
	Sessions *session.Store
	Users    user.Store
	Assets   asset.Store
}

func (*Login) Name() string { return "login" }

func (l *Login) DoGet(ctx context.Context, req *http1.Request, resp *http1.Response) {
	sess, err := l.Sessions.GetSession(req, false)
	if err == nil && sess != nil {
		if _, ok := sess.Attribute(session.AttributeUser); ok {
			resp.Redirect(PageIndex)
			return
		}
	}
	renderPage(ctx, l.Assets, resp, PageLogin)
}

func (l *Login) DoPost(ctx context.Context, req *http1.Request, resp *http1.Response) {
	form := req.FormValues()
	account, okAccount := form[FieldAccount]
	password, okPassword := form[FieldPassword]
	if !okAccount || !okPassword {
		resp.Redirect(PageUnauthorized)
		return
	}

	result, u, err := user.Authenticate(ctx, l.Users, account, password)
	if err != nil {
		logger.Error("Failed to look up account %s: %v", account, err)
		serverError(ctx, l.Assets, resp)
		return
	}
	if result != user.Authenticated {
		logger.Debug("Login rejected for %s: %s", account, result)
		resp.Redirect(PageUnauthorized)
		return
	}

	sess, err := l.Sessions.GetSession(req, true)
	if err != nil {
		logger.Error("Failed to create session for %s: %v", account, err)
		serverError(ctx, l.Assets, resp)
		return
	}
	sess.SetAttribute(session.AttributeUser, u)

	logger.Info("User %s logged in", u.Account)
	resp.SetHeader(http1.HeaderSetCookie, session.CookieName+"="+sess.ID())
	resp.Redirect(PageIndex)
}
