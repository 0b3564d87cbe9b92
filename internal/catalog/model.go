package catalog

import (
	"time"

	"github.com/planmarket/planmarket/internal/apiclient"
	"github.com/shopspring/decimal"
)

const (
	StatusDraft     = "draft"
	StatusAvailable = "available"

	PackageBasic    = "basic"
	PackageStandard = "standard"
	PackagePremium  = "premium"
)

// Disciplines flags which technical deliverables ship with a plan.
type Disciplines struct {
	Architectural bool `json:"architectural" yaml:"architectural"`
	Structural    bool `json:"structural" yaml:"structural"`
	MEP           bool `json:"mep" yaml:"mep"`
	Civil         bool `json:"civil" yaml:"civil"`
	FireSafety    bool `json:"fire_safety" yaml:"fire_safety"`
	Interior      bool `json:"interior" yaml:"interior"`
}

// Enabled lists the enabled disciplines by wire name.
func (d Disciplines) Enabled() []string {
	var out []string
	for _, f := range []struct {
		name string
		on   bool
	}{
		{"architectural", d.Architectural},
		{"structural", d.Structural},
		{"mep", d.MEP},
		{"civil", d.Civil},
		{"fire_safety", d.FireSafety},
		{"interior", d.Interior},
	} {
		if f.on {
			out = append(out, f.name)
		}
	}
	return out
}

type PlanFile struct {
	ID         apiclient.ID `json:"id,omitempty"`
	Discipline string       `json:"discipline,omitempty"`
	Filename   string       `json:"filename"`
	URL        string       `json:"url,omitempty"`
	Size       int64        `json:"size,omitempty"`
}

// Plan is a listing exactly as the backend returns it.
type Plan struct {
	ID                  apiclient.ID    `json:"id"`
	Name                string          `json:"name"`
	Description         string          `json:"description,omitempty"`
	ProjectType         string          `json:"project_type,omitempty"`
	Category            string          `json:"category,omitempty"`
	Style               string          `json:"style,omitempty"`
	Price               decimal.Decimal `json:"price"`
	Area                float64         `json:"area"`
	Bedrooms            int             `json:"bedrooms"`
	Bathrooms           int             `json:"bathrooms"`
	Floors              int             `json:"floors"`
	PackageLevel        string          `json:"package_level,omitempty"`
	DisciplinesIncluded Disciplines     `json:"disciplines_included"`
	Files               []PlanFile      `json:"files,omitempty"`
	SalesCount          int             `json:"sales_count"`
	Views               int             `json:"views"`
	Certifications      []string        `json:"certifications,omitempty"`
	Status              string          `json:"status,omitempty"`
	DesignerID          apiclient.ID    `json:"designer_id,omitempty"`
	ImageURL            string          `json:"image_url,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

type DesignerSummary struct {
	ID          apiclient.ID `json:"id"`
	Name        string       `json:"name"`
	CompanyName string       `json:"company_name,omitempty"`
	AvatarURL   string       `json:"avatar_url,omitempty"`
}

// PlanDetails is the /plans/:id/details payload.
type PlanDetails struct {
	Plan
	Gallery      []string         `json:"gallery,omitempty"`
	Designer     *DesignerSummary `json:"designer,omitempty"`
	HasPurchased bool             `json:"has_purchased"`
	BOQIncluded  bool             `json:"boq_included"`
}

// PlanPage is one page of listings.
type PlanPage struct {
	Plans   []Plan `json:"plans"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
	Pages   int    `json:"pages"`
}
