package handlers

import (
	"github.com/marmos91/coyote/internal/session"
	"github.com/marmos91/coyote/pkg/store/asset"
	"github.com/marmos91/coyote/pkg/store/user"
)

// Deps are the collaborators shared by the controllers.
type Deps struct {
	Sessions *session.Store
	Users    user.Store
	Assets   asset.Store
}

// NewDefaultMapping builds the server's route table:
//
//	/          Hello
//	/login     Login
//	/register  Register
//	*          Static
func NewDefaultMapping(d Deps) *Mapping {
	return NewMapping(map[string]Controller{
		"/":         Hello{},
		"/login":    &Login{Sessions: d.Sessions, Users: d.Users, Assets: d.Assets},
		"/register": &Register{Users: d.Users, Assets: d.Assets},
	}, &Static{Assets: d.Assets})
}
