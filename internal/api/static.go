package api

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// ReloadScript reconnects to the event stream and reloads the page after a
// rebuild that changed output.
const ReloadScript = `<script>new EventSource("/api/events").addEventListener("page.reload",function(){location.reload()})</script>`

// NewStaticHandler serves the built site from dir. Extensionless paths map
// to their lowercase .html page, "/" maps to home.html, and every HTML
// response gets ReloadScript injected before </body>.
func NewStaticHandler(dir string) http.Handler {
	root := http.Dir(dir)
	files := http.FileServer(root)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := pageName(r.URL.Path)
		if path.Ext(name) != ".html" {
			files.ServeHTTP(w, r)
			return
		}
		f, err := root.Open(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		defer f.Close()
		body, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = io.WriteString(w, injectReload(string(body)))
	})
}

func pageName(p string) string {
	name := path.Clean("/" + p)
	switch {
	case name == "/":
		return "/home.html"
	case path.Ext(name) == "":
		return strings.ToLower(name) + ".html"
	}
	return name
}

func injectReload(html string) string {
	i := strings.LastIndex(html, "</body>")
	if i < 0 {
		return html + ReloadScript
	}
	return html[:i] + ReloadScript + html[i:]
}
