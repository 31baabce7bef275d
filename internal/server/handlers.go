package server

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/conneroisu/assetpack/internal/errors"
	"github.com/conneroisu/assetpack/internal/pack"
	"github.com/conneroisu/assetpack/internal/version"
	"github.com/spf13/afero"
)

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	engine, err := s.factory(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), err, "Cannot build engine for request", "path", r.URL.Path)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	settings := engine.Settings()
	name := AssetName(r.URL.Path, settings.Prefix())
	if !engine.Has(name) {
		root := settings.Server().Root
		http.FileServer(afero.NewHttpFs(s.fs).Dir(root)).ServeHTTP(w, r)
		return
	}

	buf := &bytes.Buffer{}
	res, err := engine.PackToStream(r.Context(), name, buf)
	for _, missing := range res.Missing {
		s.logger.Warn(r.Context(), missing, "Input not found", "asset", name)
	}
	if err != nil {
		s.logger.Error(r.Context(), err, "Pack failed", "asset", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if ct := contentType(name, settings.Charset()); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug(r.Context(), "Client went away", "asset", name, "error", err.Error())
	}
}

// AssetName maps a request path to the asset name it would serve. The path
// part of prefix is stripped when present, then a single leading slash.
func AssetName(requestPath, prefix string) string {
	if p := prefixPath(prefix); p != "" && p != "/" {
		requestPath = strings.TrimPrefix(requestPath, p)
	}
	return strings.TrimPrefix(requestPath, "/")
}

// prefixPath drops the scheme and host of an absolute prefix URL.
func prefixPath(prefix string) string {
	if u, err := url.Parse(prefix); err == nil && u.Host != "" {
		return u.Path
	}
	return prefix
}

// contentType guesses from the extension. Text types carry the output charset.
func contentType(name, charset string) string {
	ct := mime.TypeByExtension(path.Ext(name))
	if ct == "" {
		return ""
	}
	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return ct
	}
	if strings.HasPrefix(mediaType, "text/") || mediaType == "application/javascript" {
		params["charset"] = charset
	}
	return mime.FormatMediaType(mediaType, params)
}

type healthResponse struct {
	Status      string        `json:"status"`
	Timestamp   time.Time     `json:"timestamp"`
	Version     string        `json:"version"`
	Build       version.Info  `json:"build"`
	Assets      int           `json:"assets"`
	Metrics     *pack.Metrics `json:"metrics,omitempty"`
	SuccessRate float64       `json:"success_rate"`
	Error       string        `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	info := version.Get()
	resp := healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   info.Short(),
		Build:     info,
	}
	if s.metrics != nil {
		snapshot := s.metrics.Snapshot()
		resp.Metrics = &snapshot
		resp.SuccessRate = snapshot.SuccessRate()
	}

	status := http.StatusOK
	engine, err := s.factory(r.Context())
	if err != nil {
		resp.Status = "unhealthy"
		resp.Error = err.Error()
		status = http.StatusServiceUnavailable
		if apperrors.IsConfigError(err) {
			resp.Status = "misconfigured"
		}
	} else {
		resp.Assets = len(engine.Assets())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error(r.Context(), err, "Failed to encode health response")
	}
}
