// Package admin mirrors the backend administration endpoints: user listing,
// role changes, account removal, the instance limit setting, and the
// scoreboard reset.
package admin

import (
	"context"
	"errors"
	"net/url"
)

var (
	// ErrSelfDelete blocks an admin from deleting their own account.
	ErrSelfDelete = errors.New("cannot delete the signed-in account")
	// ErrNegativeLimit rejects instance limits below zero before any request.
	ErrNegativeLimit = errors.New("instance limit must be zero or greater")
)

// User is one account row as the backend reports it.
type User struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Score       int    `json:"score"`
}

// Transport is the slice of the API client the service needs.
type Transport interface {
	GetJSON(ctx context.Context, path string, out any) error
	PostJSON(ctx context.Context, path string, body, out any) error
	DeleteJSON(ctx context.Context, path string, out any) error
}

type Service struct {
	api Transport
}

func NewService(api Transport) *Service {
	return &Service{api: api}
}

// Users lists every account. The payload nests the list under "data" on
// current backends and at the top level on older ones.
func (s *Service) Users(ctx context.Context) ([]User, error) {
	var res struct {
		Data struct {
			Users []User `json:"users"`
		} `json:"data"`
		Users []User `json:"users"`
	}
	if err := s.api.GetJSON(ctx, "/api/admin/users", &res); err != nil {
		return nil, err
	}
	if res.Data.Users != nil {
		return res.Data.Users, nil
	}
	return res.Users, nil
}

func (s *Service) SetRole(ctx context.Context, username, role string) error {
	body := struct {
		Role string `json:"role"`
	}{Role: role}
	return s.api.PostJSON(ctx, "/api/admin/users/"+url.PathEscape(username)+"/role", body, nil)
}

// DeleteUser removes target's account. current is the signed-in username;
// deleting it is refused locally.
func (s *Service) DeleteUser(ctx context.Context, target, current string) error {
	if target == current {
		return ErrSelfDelete
	}
	return s.api.DeleteJSON(ctx, "/api/admin/users/"+url.PathEscape(target), nil)
}

// InstanceLimit reads the per-user instance cap.
func (s *Service) InstanceLimit(ctx context.Context) (int, error) {
	var res struct {
		UserInstanceLimit int `json:"user_instance_limit"`
	}
	if err := s.api.GetJSON(ctx, "/api/admin/settings", &res); err != nil {
		return 0, err
	}
	return res.UserInstanceLimit, nil
}

// SetInstanceLimit updates the per-user instance cap. Zero means unlimited.
func (s *Service) SetInstanceLimit(ctx context.Context, limit int) error {
	if limit < 0 {
		return ErrNegativeLimit
	}
	body := struct {
		UserInstanceLimit int `json:"user_instance_limit"`
	}{UserInstanceLimit: limit}
	return s.api.PostJSON(ctx, "/api/admin/settings", body, nil)
}

// ResetScoreboard wipes all standings. The caller is expected to confirm
// with the operator first.
func (s *Service) ResetScoreboard(ctx context.Context) error {
	return s.api.PostJSON(ctx, "/api/admin/scoreboard/reset", nil, nil)
}
