package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/a-h/templ"
	"github.com/conneroisu/assetpack/internal/pack"
	"github.com/conneroisu/assetpack/internal/version"
)

type indexAsset struct {
	Name    string
	URL     string
	Inputs  []string
	Missing int
}

type indexData struct {
	Version  string
	Assets   []indexAsset
	Metrics  *pack.Metrics
	Warnings []string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != IndexPath {
		http.NotFound(w, r)
		return
	}

	engine, err := s.factory(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), err, "Cannot build engine for index")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	settings := engine.Settings()
	data := indexData{
		Version:  version.Get().Short(),
		Warnings: settings.Warnings(),
	}
	if s.metrics != nil {
		snapshot := s.metrics.Snapshot()
		data.Metrics = &snapshot
	}
	for _, name := range engine.Assets() {
		entry := indexAsset{Name: name, URL: assetURL(settings.Prefix(), name)}
		a, missing, err := engine.Derive(name)
		if err != nil {
			data.Warnings = append(data.Warnings, fmt.Sprintf("%s: %v", name, err))
		} else {
			entry.Inputs = a.InputNames()
			entry.Missing = len(missing)
		}
		data.Assets = append(data.Assets, entry)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPage(data).Render(r.Context(), w); err != nil {
		s.logger.Error(r.Context(), err, "Failed to render index")
	}
}

// assetURL is the URL the dev server serves name under.
func assetURL(prefix, name string) string {
	return path.Join("/", prefixPath(prefix), name)
}

func indexPage(data indexData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>assetpack</title></head><body>\n")
		fmt.Fprintf(&b, "<h1>assetpack <small>%s</small></h1>\n", templ.EscapeString(data.Version))

		if len(data.Warnings) > 0 {
			b.WriteString("<ul class=\"warnings\">\n")
			for _, warning := range data.Warnings {
				fmt.Fprintf(&b, "<li>%s</li>\n", templ.EscapeString(warning))
			}
			b.WriteString("</ul>\n")
		}

		if len(data.Assets) == 0 {
			b.WriteString("<p>No assets configured.</p>\n")
		} else {
			b.WriteString("<table>\n<tr><th>Asset</th><th>Inputs</th><th>Missing</th></tr>\n")
			for _, a := range data.Assets {
				fmt.Fprintf(&b, "<tr><td><a href=\"%s\">%s</a></td><td>%s</td><td>%d</td></tr>\n",
					templ.EscapeString(a.URL),
					templ.EscapeString(a.Name),
					templ.EscapeString(strings.Join(a.Inputs, ", ")),
					a.Missing)
			}
			b.WriteString("</table>\n")
		}

		if m := data.Metrics; m != nil {
			fmt.Fprintf(&b, "<p class=\"metrics\">packs: %d, failed: %d, success: %.0f%%, missing inputs: %d, average: %s</p>\n",
				m.TotalPacks, m.Failed, m.SuccessRate(), m.MissingInputs, m.AverageDuration)
		}

		b.WriteString("</body></html>\n")
		_, err := io.WriteString(w, b.String())
		return err
	})
}
