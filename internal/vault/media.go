package vault

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vaultworks/mythicalvault/internal/tagging"
)

// Media is one item in the vault, keyed by its generated file name.
type Media struct {
	ID   string `json:"id"`
	Src  string `json:"src"`
	Type string `json:"type"` // image or video
}

var (
	uploadsDir string
	tagger     *tagging.Client
)

// Init sets the uploads directory and the tag-suggestion client.
func Init(dir string) {
	if dir == "" {
		dir = "uploads"
	}
	uploadsDir = dir
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		log.Fatalf("could not create uploads dir: %v", err)
	}
	tagger = tagging.NewClientFromEnv()
}

var videoExtensions = map[string]bool{
	".mp4": true, ".webm": true, ".mov": true, ".avi": true, ".mkv": true, ".flv": true,
}

// mediaTypeFor defaults to image; the vault is primarily a photo store.
func mediaTypeFor(name string) string {
	if videoExtensions[strings.ToLower(filepath.Ext(name))] {
		return "video"
	}
	return "image"
}

// List returns all vault media, newest first
func List(c echo.Context) error {
	entries, err := os.ReadDir(uploadsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return c.JSON(http.StatusOK, []Media{})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not read media"})
	}

	type entry struct {
		media Media
		mtime int64
	}
	var items []entry
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		items = append(items, entry{
			media: Media{ID: e.Name(), Src: "/uploads/" + e.Name(), Type: mediaTypeFor(e.Name())},
			mtime: info.ModTime().UnixMilli(),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].mtime > items[j].mtime })

	media := make([]Media, 0, len(items))
	for _, it := range items {
		media = append(media, it.media)
	}
	return c.JSON(http.StatusOK, media)
}

// Delete removes one media file by its id
func Delete(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file name is required"})
	}
	// Reject anything that could escape the uploads dir
	if strings.Contains(id, "..") || strings.ContainsAny(id, "/\\") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid file name"})
	}

	if err := os.Remove(filepath.Join(uploadsDir, id)); err != nil {
		if os.IsNotExist(err) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "file not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete file"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "file deleted"})
}
