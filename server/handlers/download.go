package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ruilibao/live-server/internal/pathutil"
	"github.com/ruilibao/live-server/metrics"
	"github.com/ruilibao/live-server/server/middleware"
	"github.com/ruilibao/live-server/uploads"
)

// Download handles GET <public prefix>/*: resolves the request path to a
// storage path and streams the file. A path outside the storage root and
// a missing file produce the same generic not-found response; internal
// paths never reach the client.
func Download(store *uploads.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, info, err := store.Open(r.Context(), r.URL.Path)
		if err != nil {
			switch {
			case errors.Is(err, pathutil.ErrTraversal):
				sess, _ := middleware.GetSession(r.Context())
				username := ""
				if sess != nil && sess.CurrentUser() != nil {
					username = sess.CurrentUser().Username
				}
				logger.Warn("Upload path rejected",
					zap.String("path", r.URL.Path),
					zap.String("username", username))
				metrics.FileDownloadsTotal.WithLabelValues("rejected").Inc()
				SendResponse(w, logger, http.StatusNotFound, ResponseModel{Success: false, Message: "not found"})
			case errors.Is(err, uploads.ErrNotFound):
				metrics.FileDownloadsTotal.WithLabelValues("not_found").Inc()
				SendResponse(w, logger, http.StatusNotFound, ResponseModel{Success: false, Message: "not found"})
			default:
				logger.Error("Failed to open upload file", zap.Error(err))
				metrics.FileDownloadsTotal.WithLabelValues("error").Inc()
				SendResponse(w, logger, http.StatusInternalServerError, ResponseModel{Success: false, Message: "server error"})
			}
			return
		}
		defer file.Close()

		contentType := mime.TypeByExtension(filepath.Ext(info.Name()))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
		w.Header().Set("Last-Modified", info.ModTime().UTC().Format(http.TimeFormat))

		written, err := io.Copy(w, file)
		if err != nil {
			// Headers are gone; nothing to send the client anymore.
			logger.Error("Failed to stream upload file", zap.Error(err))
		}

		metrics.FileDownloadsTotal.WithLabelValues("success").Inc()
		metrics.FileDownloadBytes.Add(float64(written))
	}
}
