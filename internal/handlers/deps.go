package handlers

import (
	"github.com/statuscore-dev/statuscore/internal/realtime"
	"github.com/statuscore-dev/statuscore/internal/registry"
	"github.com/statuscore-dev/statuscore/internal/services"
	"github.com/statuscore-dev/statuscore/internal/status"
	"github.com/statuscore-dev/statuscore/internal/uptime"
)

// Package-level wiring, set once from main before the router starts.
var (
	engine   *status.Engine
	hub      *realtime.Hub
	store    *registry.Store
	uptimes  *uptime.Refresher
	notifier services.IncidentNotifier
)

func Init(e *status.Engine, h *realtime.Hub, s *registry.Store, u *uptime.Refresher, n services.IncidentNotifier) {
	engine = e
	hub = h
	store = s
	uptimes = u
	notifier = n
	if notifier == nil {
		notifier = services.NopIncidentNotifier{}
	}
}
