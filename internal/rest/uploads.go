package rest

import (
	"net/http"

	"github.com/dfryer1193/samplestore/samples/filestore"
	"github.com/gin-gonic/gin"
)

type UploadsHandler struct {
	files FileServer
}

// Serve streams a stored file of the given kind. Content type comes from the
// extension or content sniffing; range and conditional requests are honored.
func (h *UploadsHandler) Serve(kind filestore.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("filename")

		f, modTime, err := h.files.Open(kind, name)
		if err != nil {
			respondError(c, err)
			return
		}
		defer f.Close()

		http.ServeContent(c.Writer, c.Request, name, modTime, f)
	}
}
