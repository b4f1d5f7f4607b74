package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/startzen/pkg/model"
)

func TestAuthState(t *testing.T) {
	unknown := model.UnknownAuth()
	gt.True(t, unknown.IsLoading())
	gt.False(t, unknown.IsAuthenticated())
	gt.V(t, unknown.User()).Nil()

	anon := model.AnonymousAuth()
	gt.False(t, anon.IsLoading())
	gt.False(t, anon.IsAuthenticated())
	gt.V(t, anon.User()).Nil()

	user := &model.User{ID: "u1", DisplayName: "Ada"}
	authed := model.AuthenticatedAuth(user)
	gt.True(t, authed.IsAuthenticated())
	gt.Equal(t, authed.User().ID, model.UserID("u1"))

	// state holds its own copy of the user
	user.DisplayName = "changed"
	gt.Equal(t, authed.User().DisplayName, "Ada")

	gt.Equal(t, model.AuthenticatedAuth(nil).Status(), model.AuthAnonymous)
}

func TestAuthStateEqual(t *testing.T) {
	a := model.AuthenticatedAuth(&model.User{ID: "u1"})
	b := model.AuthenticatedAuth(&model.User{ID: "u1", DisplayName: "other"})
	c := model.AuthenticatedAuth(&model.User{ID: "u2"})

	gt.True(t, a.Equal(b))
	gt.False(t, a.Equal(c))
	gt.True(t, model.AnonymousAuth().Equal(model.AnonymousAuth()))
	gt.False(t, model.AnonymousAuth().Equal(model.UnknownAuth()))
}

func TestUserNameAndInitial(t *testing.T) {
	u := &model.User{ID: "u1"}
	gt.Equal(t, u.Name(), "User")
	gt.Equal(t, u.Initial(), "U")

	u.DisplayName = "Émile"
	gt.Equal(t, u.Name(), "Émile")
	gt.Equal(t, u.Initial(), "É")
}
