package handlers

import (
	"context"

	"github.com/marmos91/coyote/internal/logger"
	"github.com/marmos91/coyote/internal/protocol/http1"
	"github.com/marmos91/coyote/pkg/store/asset"
	"github.com/marmos91/coyote/pkg/store/user"
)

// Register renders the registration form and creates accounts posted to
// it. Registering an existing account replaces it.
type Register struct {
	Users  user.Store
	Assets asset.Store
}

func (*Register) Name() string { return "register" }

func (r *Register) DoGet(ctx context.Context, _ *http1.Request, resp *http1.Response) {
	renderPage(ctx, r.Assets, resp, PageRegister)
}

func (r *Register) DoPost(ctx context.Context, req *http1.Request, resp *http1.Response) {
	form := req.FormValues()
	account, okAccount := form[FieldAccount]
	password, okPassword := form[FieldPassword]
	email, okEmail := form[FieldEmail]
	if !okAccount || !okPassword || !okEmail {
		resp.Redirect(PageUnauthorized)
		return
	}

	u, err := user.New(account, password, email)
	if err != nil {
		logger.Error("Failed to create user %s: %v", account, err)
		serverError(ctx, r.Assets, resp)
		return
	}
	if err := r.Users.Save(ctx, u); err != nil {
		logger.Error("Failed to save user %s: %v", account, err)
		serverError(ctx, r.Assets, resp)
		return
	}

	logger.Info("Registered user %s", account)
	resp.Redirect(PageIndex)
}
