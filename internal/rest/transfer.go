package rest

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/dfryer1193/journal/api"
	"github.com/dfryer1193/journal/blog/application"
	"github.com/dfryer1193/journal/blog/domain"
	"github.com/gin-gonic/gin"
)

// ExportPosts downloads the locally stored collection as a backup file.
func (a *Api) ExportPosts(c *gin.Context) {
	var buf bytes.Buffer
	if err := a.transfer.Export(c.Request.Context(), &buf); err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": application.ExportFilename}))
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

// ImportPosts replaces the collection with an uploaded backup, sent either as
// the multipart field "file" or as the request body.
func (a *Api) ImportPosts(c *gin.Context) {
	var r io.Reader = c.Request.Body
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		header, err := c.FormFile("file")
		if err != nil {
			writeError(c, fmt.Errorf("%w: %w", domain.ErrValidation, err))
			return
		}
		f, err := header.Open()
		if err != nil {
			writeError(c, err)
			return
		}
		defer f.Close()
		r = f
	}

	n, err := a.transfer.Import(c.Request.Context(), r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.ImportResult{Imported: n})
}
