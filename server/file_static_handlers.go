package server

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

//go:embed static
var staticFiles embed.FS

const assetCacheControl = "public, max-age=300, must-revalidate"

var staticAssets = mustSub(staticFiles, "static")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic("Failed to create sub filesystem: " + err.Error())
	}
	return sub
}

// StaticAssetHandler serves static/<dir>/{file}. Only bare, non-hidden file
// names are accepted.
func (s *Server) StaticAssetHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file := chi.URLParam(r, "file")
		if file == "" || file != path.Base(file) || strings.HasPrefix(file, ".") {
			s.renderError(w, r, http.StatusNotFound, "Page not found", "")
			return
		}

		if err := streamAsset(w, path.Join(dir, file)); err != nil {
			logger := zerolog.Ctx(r.Context())
			if errors.Is(err, fs.ErrNotExist) {
				logger.Debug().Str("asset", file).Msg("Static asset not found")
			} else {
				logger.Error().Err(err).Str("asset", file).Msg("Failed to serve static asset")
			}
			s.renderError(w, r, http.StatusNotFound, "Page not found", "")
		}
	}
}

func streamAsset(w http.ResponseWriter, name string) error {
	data, err := fs.ReadFile(staticAssets, name)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}

	w.Header().Set("Content-Type", assetContentType(name, data))
	w.Header().Set("Cache-Control", assetCacheControl)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s content: %w", name, err)
	}
	return nil
}

// assetContentType picks the type from the extension, sniffing when unknown.
// Text types always carry a UTF-8 charset.
func assetContentType(name string, data []byte) string {
	ctype := mime.TypeByExtension(strings.ToLower(path.Ext(name)))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	if strings.HasPrefix(ctype, "text/") && !strings.Contains(strings.ToLower(ctype), "charset=") {
		ctype += "; charset=utf-8"
	}
	return ctype
}
