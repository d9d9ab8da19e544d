package vault

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

type UploadRequest struct {
	MediaDataURI string `json:"media_data_uri"`
	FileName     string `json:"file_name"`
	Type         string `json:"type"`
}

// Upload stores a base64 data-URI upload under a generated unique name. When
// the tagging service is configured its suggestions are returned with the
// media; a tagging failure aborts the upload.
func Upload(c echo.Context) error {
	req := new(UploadRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.MediaDataURI == "" || req.FileName == "" || req.Type == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing required fields"})
	}
	if req.Type != "image" && req.Type != "video" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be image or video"})
	}

	idx := strings.Index(req.MediaDataURI, ";base64,")
	if idx < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid data URI"})
	}
	data, err := base64.StdEncoding.DecodeString(req.MediaDataURI[idx+len(";base64,"):])
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid data URI"})
	}

	var tags []string
	if tagger.Enabled() {
		tags, err = tagger.SuggestTags(context.Background(), req.MediaDataURI)
		if err != nil {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "tag suggestion failed"})
		}
	}

	// Prevent path traversal and create a unique name
	safeFileName := filepath.Base(req.FileName)
	if safeFileName == "." || safeFileName == ".." || strings.Contains(safeFileName, "..") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid file name"})
	}
	uniqueFileName := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), safeFileName)

	if err := os.WriteFile(filepath.Join(uploadsDir, uniqueFileName), data, 0o644); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save file"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"media":   Media{ID: uniqueFileName, Src: "/uploads/" + uniqueFileName, Type: req.Type},
		"tags":    tags,
	})
}

// SuggestTags lets the uploader preview tag suggestions before committing an
// upload.
func SuggestTags(c echo.Context) error {
	req := new(UploadRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.MediaDataURI == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "media_data_uri is required"})
	}
	if !tagger.Enabled() {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "tagging service not configured"})
	}

	tags, err := tagger.SuggestTags(context.Background(), req.MediaDataURI)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "tag suggestion failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tags": tags})
}
