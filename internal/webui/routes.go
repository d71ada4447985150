package webui

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"fli.dev/internal/app"
	"fli.dev/internal/appconf"
)

// WebUI serves read-only debug pages over the application state.
type WebUI struct {
	*app.Application
}

// SetWebUIRoutes mounts the debug pages. They are only served in development.
func (webUI *WebUI) SetWebUIRoutes(router *httprouter.Router) {
	if webUI.Config.Env != appconf.Development {
		return
	}
	router.HandlerFunc(http.MethodGet, "/debug/", webUI.debugIndexHandler)
}

// redactedConfig hides credentials before the config is rendered.
func redactedConfig(cfg appconf.Config) appconf.Config {
	if cfg.RedisURL != "" {
		cfg.RedisURL = "[redacted]"
	}
	keys := make([]string, len(cfg.APIKeys))
	for i := range keys {
		keys[i] = "[redacted]"
	}
	cfg.APIKeys = keys
	return cfg
}
