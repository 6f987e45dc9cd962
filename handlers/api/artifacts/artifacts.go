package artifacts

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"doodle-server/core"
)

// HandleGet serves a stored generated image with its content type.
func HandleGet(store core.ArtifactStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		artifact, err := store.Get(r.Context(), id)
		if errors.Is(err, core.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Artifact not found"})
			return
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":    err,
				"artifact": id,
			}).Error("Failed to load artifact")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to load artifact"})
			return
		}

		contentType := artifact.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		_, _ = w.Write(artifact.Data)
	}
}

func HandleDelete(store core.ArtifactStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := store.Delete(r.Context(), id)
		if errors.Is(err, core.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Artifact not found"})
			return
		}
		if err != nil {
			logrus.WithField("error", err).Error("Failed to delete artifact")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to delete artifact"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
