package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"stylens-server/internal/storage"
)

var downloadClient = &http.Client{Timeout: 60 * time.Second}

// Download proxies a stored image back with an attachment disposition so
// browsers save instead of render it. Only URLs on our own public domain are
// fetched; anything else would make this an open proxy.
func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "url required")
		return
	}
	if _, ok := a.Store.KeyFromURL(url); !ok {
		a.error(w, http.StatusForbidden, "forbidden", "url not allowed")
		return
	}

	filename := storage.SanitizeFilename(r.URL.Query().Get("filename"))
	if filename == "" || filename == "upload" {
		filename = "download.png"
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to build request")
		return
	}
	resp, err := downloadClient.Do(req)
	if err != nil {
		a.Logger.Error().Err(err).Str("url", url).Msg("download fetch failed")
		a.error(w, http.StatusBadGateway, "upstream", "failed to fetch image")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.error(w, http.StatusBadGateway, "upstream", fmt.Sprintf("upstream status %d", resp.StatusCode))
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := io.Copy(w, resp.Body); err != nil {
		a.Logger.Warn().Err(err).Str("url", url).Msg("download stream interrupted")
	}
}
