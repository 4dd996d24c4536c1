package handlers

import "net/http"

type IndexHandler struct {
	version string
}

func NewIndexHandler(version string) *IndexHandler {
	return &IndexHandler{version: version}
}

type IndexResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, IndexResponse{
		Message: "CodeMentor API",
		Version: h.version,
		Endpoints: map[string]string{
			"auth": "/api/auth",
			"ai":   "/api/ai",
		},
	})
}
