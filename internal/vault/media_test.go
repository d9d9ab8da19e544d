package vault

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaTypeFor(t *testing.T) {
	assert.Equal(t, "image", mediaTypeFor("photo.PNG"))
	assert.Equal(t, "image", mediaTypeFor("photo.jpg"))
	assert.Equal(t, "video", mediaTypeFor("clip.mp4"))
	assert.Equal(t, "video", mediaTypeFor("clip.WebM"))
	// Unknown extensions default to image
	assert.Equal(t, "image", mediaTypeFor("mystery.bin"))
}

func uploadBody(fileName string) string {
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("fake image bytes"))
	b, _ := json.Marshal(UploadRequest{MediaDataURI: dataURI, FileName: fileName, Type: "image"})
	return string(b)
}

func postJSON(e *echo.Echo, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestUploadAndList(t *testing.T) {
	t.Setenv("TAGGING_API_URL", "")
	Init(t.TempDir())
	e := echo.New()

	c, rec := postJSON(e, "/vault/media", uploadBody("pic.png"))
	require.NoError(t, Upload(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var uploadResp struct {
		Success bool  `json:"success"`
		Media   Media `json:"media"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploadResp))
	assert.True(t, uploadResp.Success)
	assert.True(t, strings.HasSuffix(uploadResp.Media.ID, "-pic.png"))
	assert.Equal(t, "image", uploadResp.Media.Type)

	data, err := os.ReadFile(filepath.Join(uploadsDir, uploadResp.Media.ID))
	require.NoError(t, err)
	assert.Equal(t, "fake image bytes", string(data))

	req := httptest.NewRequest(http.MethodGet, "/vault/media", nil)
	rec = httptest.NewRecorder()
	require.NoError(t, List(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var media []Media
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &media))
	require.Len(t, media, 1)
	assert.Equal(t, uploadResp.Media.ID, media[0].ID)
	assert.Equal(t, "/uploads/"+media[0].ID, media[0].Src)
}

func TestUploadRejectsBadInput(t *testing.T) {
	t.Setenv("TAGGING_API_URL", "")
	Init(t.TempDir())
	e := echo.New()

	c, rec := postJSON(e, "/vault/media", `{"file_name":"pic.png","type":"image"}`)
	require.NoError(t, Upload(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = postJSON(e, "/vault/media", `{"media_data_uri":"data:image/png;base64,xx","file_name":"pic.png","type":"gif"}`)
	require.NoError(t, Upload(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = postJSON(e, "/vault/media", `{"media_data_uri":"not-a-data-uri","file_name":"pic.png","type":"image"}`)
	require.NoError(t, Upload(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteRejectsPathTraversal(t *testing.T) {
	Init(t.TempDir())
	e := echo.New()

	req := httptest.NewRequest(http.MethodDelete, "/vault/media/x", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("../secrets.txt")

	require.NoError(t, Delete(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteRemovesFile(t *testing.T) {
	Init(t.TempDir())
	e := echo.New()

	require.NoError(t, os.WriteFile(filepath.Join(uploadsDir, "gone.png"), []byte("x"), 0o644))

	req := httptest.NewRequest(http.MethodDelete, "/vault/media/gone.png", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("gone.png")

	require.NoError(t, Delete(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err := os.Stat(filepath.Join(uploadsDir, "gone.png"))
	assert.True(t, os.IsNotExist(err))

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/vault/media/gone.png", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("gone.png")
	require.NoError(t, Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
