package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"docstore/internal/security"
)

const (
	// UserIDHeader carries the authenticated subject id. Authentication
	// happens upstream (API gateway / service mesh); the value is trusted.
	UserIDHeader = "user-id"
	// UserRolesHeader carries the subject's roles as a comma-separated list.
	UserRolesHeader = "user-roles"
	// CallerLocalKey is the key used to store the caller in Fiber's context locals.
	CallerLocalKey = "caller"
)

// Caller extracts the caller identity from the request headers and stores
// it in context locals. A request without a user-id header yields an
// unauthenticated caller; the services decide what that means per operation.
func Caller() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := security.Caller{ID: c.Get(UserIDHeader)}
		if raw := c.Get(UserRolesHeader); raw != "" {
			for _, r := range strings.Split(raw, ",") {
				if role := strings.TrimSpace(r); role != "" {
					caller.Roles = append(caller.Roles, role)
				}
			}
		}
		c.Locals(CallerLocalKey, caller)
		return c.Next()
	}
}

// CallerFromCtx returns the caller stored by the Caller middleware.
func CallerFromCtx(c *fiber.Ctx) security.Caller {
	if v, ok := c.Locals(CallerLocalKey).(security.Caller); ok {
		return v
	}
	return security.Caller{}
}
