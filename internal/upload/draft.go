// Package upload implements the eight-step plan upload wizard and its
// multipart submission.
package upload

import (
	"github.com/planmarket/planmarket/internal/catalog"
	"github.com/shopspring/decimal"
)

// FileRef points at a local file to attach.
type FileRef struct {
	Path string `yaml:"path" validate:"required"`
	Name string `yaml:"name,omitempty"`
}

type BasicInfo struct {
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description" validate:"required"`
	ProjectType string `yaml:"project_type" validate:"required"`
	Category    string `yaml:"category"`
	Style       string `yaml:"style"`
}

type Specifications struct {
	Area      float64 `yaml:"area" validate:"gt=0"`
	PlotSize  string  `yaml:"plot_size"`
	Bedrooms  int     `yaml:"bedrooms" validate:"gte=0"`
	Bathrooms int     `yaml:"bathrooms" validate:"gte=0"`
	Floors    int     `yaml:"floors" validate:"gte=1"`
	Garage    int     `yaml:"garage" validate:"gte=0"`
}

// DisciplineFiles holds the drawing sets, one list per discipline.
type DisciplineFiles struct {
	Architectural []FileRef `yaml:"architectural" validate:"dive"`
	Structural    []FileRef `yaml:"structural" validate:"dive"`
	MEP           []FileRef `yaml:"mep" validate:"dive"`
	Civil         []FileRef `yaml:"civil" validate:"dive"`
	FireSafety    []FileRef `yaml:"fire_safety" validate:"dive"`
	Interior      []FileRef `yaml:"interior" validate:"dive"`
}

type Extras struct {
	BOQ       *FileRef  `yaml:"boq"`
	Thumbnail *FileRef  `yaml:"thumbnail" validate:"required"`
	Gallery   []FileRef `yaml:"gallery" validate:"max=10,dive"`
	VideoURL  string    `yaml:"video_url" validate:"omitempty,url"`
}

type Pricing struct {
	Price        decimal.Decimal `yaml:"price" validate:"gt=0"`
	Currency     string          `yaml:"currency"`
	PackageLevel string          `yaml:"package_level" validate:"required,oneof=basic standard premium"`
}

type Compliance struct {
	BuildingCodes  []string `yaml:"building_codes"`
	Certifications []string `yaml:"certifications"`
	AcceptTerms    bool     `yaml:"accept_terms" validate:"required"`
}

// Draft is everything the wizard collects before submission.
type Draft struct {
	Basic       BasicInfo           `yaml:"basic"`
	Specs       Specifications      `yaml:"specifications"`
	Disciplines catalog.Disciplines `yaml:"disciplines"`
	Files       DisciplineFiles     `yaml:"files"`
	Extras      Extras              `yaml:"extras"`
	Pricing     Pricing             `yaml:"pricing"`
	Compliance  Compliance          `yaml:"compliance"`
	Status      string              `yaml:"status"`
}
