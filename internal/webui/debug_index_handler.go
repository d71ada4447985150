package webui

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/davecgh/go-spew/spew"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

type debugData struct {
	Title string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	content := spew.Sdump(data)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	dataStruct := debugData{
		Title: title,
		Pre:   content,
	}

	if err := debugTemplate.Execute(w, dataStruct); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	dataType := r.URL.Query().Get("dataType")

	var data interface{}
	var title string

	switch dataType {
	case "airports":
		data = webUI.Registry.Airports()
		title = "Code Registry - Airports"
	case "airlines":
		data = webUI.Registry.Airlines()
		title = "Code Registry - Airlines"
	case "config":
		data = redactedConfig(webUI.Config)
		title = "Configuration"
	case "fare_db":
		title = "Fare History - Row Counts"
		if webUI.FareDB == nil {
			data = map[string]string{"error": "fare history is not configured"}
			break
		}
		counts, err := webUI.FareDB.TableCounts(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		data = counts
	default:
		data = map[string]string{
			"error": "Please use one of the following: airports, airlines, config, fare_db.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}
