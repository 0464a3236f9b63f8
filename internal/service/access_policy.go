package service

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/sandeepkv93/media-request-tracker/internal/session"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const accessModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (p.act == "*" || r.act == p.act)
`

// AccessPolicy answers whether an identity may reach a route.
type AccessPolicy struct {
	mu       sync.RWMutex
	enforcer *casbin.Enforcer
}

func NewAccessPolicy() (*AccessPolicy, error) {
	m, err := model.NewModelFromString(accessModel)
	if err != nil {
		return nil, fmt.Errorf("parse access model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}
	policies := [][]string{
		{RoleAdmin, "/api/admin", "*"},
		{RoleAdmin, "/api/admin/*", "*"},
	}
	if _, err := e.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("add policies: %w", err)
	}
	return &AccessPolicy{enforcer: e}, nil
}

func RoleOf(id session.Identity) string {
	if id.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

func (p *AccessPolicy) Allowed(id session.Identity, path, method string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ok, err := p.enforcer.Enforce(RoleOf(id), path, method)
	if err != nil {
		return false, fmt.Errorf("enforce access policy: %w", err)
	}
	return ok, nil
}
