package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/planmarket/planmarket/internal/apiclient"
	"github.com/planmarket/planmarket/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memOpener(t *testing.T) Opener {
	return func(path string) (io.ReadCloser, error) {
		if strings.Contains(path, "missing") {
			return nil, os.ErrNotExist
		}
		return io.NopCloser(strings.NewReader("content of " + path)), nil
	}
}

type received struct {
	method string
	path   string
	fields map[string][]string
	files  map[string][]string
}

func uploadBackend(t *testing.T, got *received) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handle := func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		got.method = c.Request.Method
		got.path = c.Request.URL.Path
		got.fields = form.Value
		got.files = map[string][]string{}
		for key, headers := range form.File {
			for _, h := range headers {
				got.files[key] = append(got.files[key], h.Filename)
			}
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Plan uploaded", "plan_id": "plan-42"})
	}
	r.POST("/plans/upload", handle)
	r.PUT("/plans/:id", handle)
	r.PUT("/admin/plans/:id", handle)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func TestSubmitter_Create(t *testing.T) {
	var got received
	server := uploadBackend(t, &got)
	client, err := apiclient.New(apiclient.Options{BaseURL: server.URL})
	require.NoError(t, err)
	client.SetToken("designer-token")

	res, err := NewSubmitter(client, memOpener(t)).Create(context.Background(), completeDraft())
	require.NoError(t, err)
	assert.Equal(t, "plan-42", res.PlanID.String())

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, []string{"Savanna Villa"}, got.fields["name"])
	assert.Equal(t, []string{"250000"}, got.fields["price"])
	assert.Equal(t, []string{"240"}, got.fields["area"])
	assert.Equal(t, []string{"standard"}, got.fields["package_level"])

	var disciplines catalog.Disciplines
	require.NoError(t, json.Unmarshal([]byte(got.fields["disciplines_included"][0]), &disciplines))
	assert.Equal(t, []string{"architectural", "structural"}, disciplines.Enabled())
	assert.Equal(t, []string{"[]"}, got.fields["certifications"])

	assert.Equal(t, []string{"ground.pdf", "first.pdf"}, got.files["architectural_files"])
	assert.Equal(t, []string{"beams.dwg"}, got.files["structural_files"])
	assert.Equal(t, []string{"boq.xlsx"}, got.files["boq_file"])
	assert.Equal(t, []string{"thumb.jpg"}, got.files["thumbnail"])
	assert.Equal(t, []string{"g1.jpg"}, got.files["gallery_images"])
	assert.NotContains(t, got.files, "mep_files")
}

func TestSubmitter_UpdatePaths(t *testing.T) {
	var got received
	server := uploadBackend(t, &got)
	client, err := apiclient.New(apiclient.Options{BaseURL: server.URL})
	require.NoError(t, err)
	s := NewSubmitter(client, memOpener(t))

	_, err = s.Update(context.Background(), "plan-42", completeDraft())
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/plans/plan-42", got.path)

	_, err = s.AdminUpdate(context.Background(), "plan-42", completeDraft())
	require.NoError(t, err)
	assert.Equal(t, "/admin/plans/plan-42", got.path)
}

func TestEncode_MissingFile(t *testing.T) {
	d := completeDraft()
	d.Files.Civil = []FileRef{{Path: "missing.pdf"}}
	_, err := Encode(d, memOpener(t))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

const manifestYAML = `
basic:
  name: Savanna Villa
  description: Four-bed family home
  project_type: residential
specifications:
  area: 240
  bedrooms: 4
  floors: 2
disciplines:
  architectural: true
files:
  architectural:
    - path: drawings/ground.pdf
extras:
  thumbnail:
    path: /abs/thumb.jpg
  boq:
    path: boq.xlsx
pricing:
  price: "250000.00"
  package_level: premium
compliance:
  accept_terms: true
status: draft
`

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifestYAML), 0o600))

	d, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "Savanna Villa", d.Basic.Name)
	assert.Equal(t, "250000", d.Pricing.Price.String())
	assert.True(t, d.Disciplines.Architectural)
	assert.Equal(t, filepath.Join(dir, "drawings/ground.pdf"), d.Files.Architectural[0].Path)
	assert.Equal(t, "/abs/thumb.jpg", d.Extras.Thumbnail.Path)
	assert.Equal(t, filepath.Join(dir, "boq.xlsx"), d.Extras.BOQ.Path)

	assert.NoError(t, NewWizard(d).Complete())

	_, err = LoadManifest(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}
