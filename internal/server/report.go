package server

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/vk/bundlego/internal/group"
	"github.com/vk/bundlego/internal/locator"
	"github.com/vk/bundlego/internal/processor"
)

// Reporter renders a processing failure to the response. The dispatcher
// picks the reporter by mode: development gets a diagnostic page matched to
// the error kind, production gets DefaultReporter.
type Reporter interface {
	Report(w http.ResponseWriter, r *http.Request, err error)
}

// fail converts a per-request error into the mode-appropriate response.
// This is the only branch point between development and production failure
// behavior.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if s.settings.Debug {
		bestFor(err).Report(w, r, err)
		return
	}
	DefaultReporter.Report(w, r, err)
}

// bestFor selects the diagnostic reporter matching the error's kind.
func bestFor(err error) Reporter {
	var notFound *locator.NotFoundError
	var unknownGroup *GroupNotFoundError
	var emptyGroup *EmptyGroupError
	if errors.As(err, &notFound) || errors.As(err, &unknownGroup) || errors.As(err, &emptyGroup) {
		return diagnosticReporter{title: "Resource not found", status: http.StatusNotFound}
	}
	var collision *group.CollisionError
	if errors.As(err, &collision) {
		return diagnosticReporter{title: "Group naming collision", status: http.StatusInternalServerError}
	}
	var procErr *processor.Error
	if errors.As(err, &procErr) {
		return diagnosticReporter{title: "Processing failed", status: http.StatusInternalServerError}
	}
	return diagnosticReporter{title: "Bundle request failed", status: http.StatusInternalServerError}
}

// statusFor maps an error kind to the HTTP status of the opaque production
// response.
func statusFor(err error) int {
	var notFound *locator.NotFoundError
	var unknownGroup *GroupNotFoundError
	var emptyGroup *EmptyGroupError
	if errors.As(err, &notFound) || errors.As(err, &unknownGroup) || errors.As(err, &emptyGroup) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

var diagnosticTemplate = template.Must(template.New("diagnostic").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p class="error">{{.Message}}</p>
<h2>Request</h2>
<ul>
<li>Method: <code>{{.Method}}</code></li>
<li>Path: <code>{{.Path}}</code></li>
{{if .Query}}<li>Query: <code>{{.Query}}</code></li>{{end}}
</ul>
</body>
</html>
`))

// diagnosticReporter renders an HTML page with the failure and its request
// context. Development only.
type diagnosticReporter struct {
	title  string
	status int
}

// Report implements Reporter.
func (d diagnosticReporter) Report(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(d.status)
	data := struct {
		Title, Message, Method, Path, Query string
	}{
		Title:   d.title,
		Message: err.Error(),
	}
	if r != nil {
		data.Method = r.Method
		data.Path = r.URL.Path
		data.Query = r.URL.RawQuery
	}
	// Template execution over a flat struct cannot fail at runtime.
	_ = diagnosticTemplate.Execute(w, data)
}

// DefaultReporter is the production reporter: an opaque response with the
// appropriate status and no request-derived content.
var DefaultReporter Reporter = opaqueReporter{}

type opaqueReporter struct{}

// Report implements Reporter.
func (opaqueReporter) Report(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	http.Error(w, http.StatusText(status), status)
}
