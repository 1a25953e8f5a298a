package handler

import (
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/clinicsite/clinicsite/internal/openapi"
)

// OpenAPIHandler serves the API description. The document depends only on
// the build, so it is generated once.
type OpenAPIHandler struct {
	info openapi.Info

	once sync.Once
	doc  *openapi3.T
	err  error
}

// NewOpenAPIHandler creates a new OpenAPIHandler.
func NewOpenAPIHandler(info openapi.Info) *OpenAPIHandler {
	return &OpenAPIHandler{info: info}
}

// ServeSpec returns the OpenAPI 3.1 document.
// GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	h.once.Do(func() {
		h.doc, h.err = openapi.Generate(h.info)
	})
	if h.err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate OpenAPI document: "+h.err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.doc)
}
