package handlers

import (
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/pairwise/internal/images"
	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
)

func (h *Handler) HandleImages(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ids, err := h.source.List()
	if err != nil {
		h.writeError(w, "Failed to list images: "+err.Error(), http.StatusInternalServerError)
		return
	}

	list := make([]*images.Info, 0, len(ids))
	for _, id := range ids {
		info, err := h.source.Info(id)
		if err != nil {
			h.writeError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		list = append(list, info)
	}
	h.writeJSON(w, list)
}

// HandleImage serves the pixel payload of one candidate image
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" && r.Method != "HEAD" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/images/")
	path, err := h.source.Path(pairing.ImageID(name))
	if err != nil {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	http.ServeFile(w, r, path)
}
