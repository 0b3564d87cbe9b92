package upload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
)

// Opener opens a FileRef path for reading.
type Opener func(path string) (io.ReadCloser, error)

func osOpener(path string) (io.ReadCloser, error) { return os.Open(path) }

// Encoded is a ready-to-send multipart body.
type Encoded struct {
	Body        []byte
	ContentType string
}

// Encode flattens d into one multipart form. Nested groups go out as JSON
// strings; files go out under one field name per discipline.
func Encode(d *Draft, open Opener) (*Encoded, error) {
	if open == nil {
		open = osOpener
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := []struct{ key, value string }{
		{"name", d.Basic.Name},
		{"description", d.Basic.Description},
		{"project_type", d.Basic.ProjectType},
		{"category", d.Basic.Category},
		{"style", d.Basic.Style},
		{"area", strconv.FormatFloat(d.Specs.Area, 'f', -1, 64)},
		{"plot_size", d.Specs.PlotSize},
		{"bedrooms", strconv.Itoa(d.Specs.Bedrooms)},
		{"bathrooms", strconv.Itoa(d.Specs.Bathrooms)},
		{"floors", strconv.Itoa(d.Specs.Floors)},
		{"garage", strconv.Itoa(d.Specs.Garage)},
		{"price", d.Pricing.Price.String()},
		{"currency", d.Pricing.Currency},
		{"package_level", d.Pricing.PackageLevel},
		{"video_url", d.Extras.VideoURL},
		{"status", d.Status},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := mw.WriteField(f.key, f.value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", f.key, err)
		}
	}

	jsonFields := []struct {
		key   string
		value interface{}
	}{
		{"disciplines_included", d.Disciplines},
		{"building_codes", nonNil(d.Compliance.BuildingCodes)},
		{"certifications", nonNil(d.Compliance.Certifications)},
	}
	for _, f := range jsonFields {
		data, err := json.Marshal(f.value)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", f.key, err)
		}
		if err := mw.WriteField(f.key, string(data)); err != nil {
			return nil, fmt.Errorf("write field %s: %w", f.key, err)
		}
	}

	fileGroups := []struct {
		key   string
		files []FileRef
	}{
		{"architectural_files", d.Files.Architectural},
		{"structural_files", d.Files.Structural},
		{"mep_files", d.Files.MEP},
		{"civil_files", d.Files.Civil},
		{"fire_safety_files", d.Files.FireSafety},
		{"interior_files", d.Files.Interior},
		{"gallery_images", d.Extras.Gallery},
	}
	if d.Extras.BOQ != nil {
		fileGroups = append(fileGroups, struct {
			key   string
			files []FileRef
		}{"boq_file", []FileRef{*d.Extras.BOQ}})
	}
	if d.Extras.Thumbnail != nil {
		fileGroups = append(fileGroups, struct {
			key   string
			files []FileRef
		}{"thumbnail", []FileRef{*d.Extras.Thumbnail}})
	}

	for _, g := range fileGroups {
		for _, ref := range g.files {
			if err := writeFile(mw, g.key, ref, open); err != nil {
				return nil, err
			}
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}
	return &Encoded{Body: buf.Bytes(), ContentType: mw.FormDataContentType()}, nil
}

func writeFile(mw *multipart.Writer, field string, ref FileRef, open Opener) error {
	name := ref.Name
	if name == "" {
		name = filepath.Base(ref.Path)
	}
	rc, err := open(ref.Path)
	if err != nil {
		return fmt.Errorf("open %s for %s: %w", ref.Path, field, err)
	}
	defer rc.Close()

	part, err := mw.CreateFormFile(field, name)
	if err != nil {
		return fmt.Errorf("create part %s: %w", field, err)
	}
	if _, err := io.Copy(part, rc); err != nil {
		return fmt.Errorf("copy %s: %w", ref.Path, err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
