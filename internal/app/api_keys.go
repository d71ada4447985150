package app

import "net/http"

// APIKeysRequired reports whether callers must present an API key.
func (app *Application) APIKeysRequired() bool {
	return len(app.Config.APIKeys) > 0
}

func (app *Application) RequestHasInvalidAPIKey(r *http.Request) bool {
	if !app.APIKeysRequired() {
		return false
	}
	key := r.URL.Query().Get("key")
	return app.IsInvalidAPIKey(key)
}

func (app *Application) IsInvalidAPIKey(key string) bool {
	if key == "" {
		return true
	}

	for _, validKey := range app.Config.APIKeys {
		if key == validKey {
			return false
		}
	}

	return true
}
