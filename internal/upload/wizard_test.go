package upload

import (
	"testing"

	"github.com/planmarket/planmarket/internal/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeDraft() *Draft {
	return &Draft{
		Basic: BasicInfo{Name: "Savanna Villa", Description: "Four-bed family home", ProjectType: "residential", Style: "modern"},
		Specs: Specifications{Area: 240, Bedrooms: 4, Bathrooms: 3, Floors: 2},
		Disciplines: catalog.Disciplines{
			Architectural: true,
			Structural:    true,
		},
		Files: DisciplineFiles{
			Architectural: []FileRef{{Path: "drawings/ground.pdf"}, {Path: "drawings/first.pdf"}},
			Structural:    []FileRef{{Path: "structural/beams.dwg", Name: "beams.dwg"}},
		},
		Extras: Extras{
			BOQ:       &FileRef{Path: "boq.xlsx"},
			Thumbnail: &FileRef{Path: "thumb.jpg"},
			Gallery:   []FileRef{{Path: "g1.jpg"}},
		},
		Pricing:    Pricing{Price: decimal.NewFromInt(250_000), Currency: "KES", PackageLevel: catalog.PackageStandard},
		Compliance: Compliance{BuildingCodes: []string{"KS 1882"}, AcceptTerms: true},
		Status:     catalog.StatusAvailable,
	}
}

func TestWizard_WalksAllSteps(t *testing.T) {
	w := NewWizard(completeDraft())
	for i := 0; i < stepCount-1; i++ {
		require.NoError(t, w.Next(), "step %s", w.Step())
	}
	assert.Equal(t, StepReview, w.Step())
	assert.ErrorIs(t, w.Next(), ErrLastStep)
	assert.NoError(t, w.Complete())
}

func TestWizard_NextValidatesOnlyCurrentStep(t *testing.T) {
	d := completeDraft()
	d.Pricing = Pricing{} // a later step is empty
	d.Basic.Name = ""

	w := NewWizard(d)
	err := w.Next()
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepBasicInfo, stepErr.Step)
	assert.Equal(t, []string{"name"}, stepErr.Fields)
	assert.Equal(t, StepBasicInfo, w.Step())

	d.Basic.Name = "Savanna Villa"
	require.NoError(t, w.Next())
	assert.Equal(t, StepSpecifications, w.Step())
}

func TestWizard_StepRules(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Draft)
		step   Step
		fields []string
	}{
		{"zero area", func(d *Draft) { d.Specs.Area = 0 }, StepSpecifications, []string{"area"}},
		{"no floors", func(d *Draft) { d.Specs.Floors = 0 }, StepSpecifications, []string{"floors"}},
		{"no discipline", func(d *Draft) { d.Disciplines = catalog.Disciplines{} }, StepDisciplines, []string{"disciplines"}},
		{"file without path", func(d *Draft) { d.Files.MEP = []FileRef{{Name: "x.pdf"}} }, StepFiles, []string{"mep[0].path"}},
		{"no thumbnail", func(d *Draft) { d.Extras.Thumbnail = nil }, StepExtras, []string{"thumbnail"}},
		{"bad video url", func(d *Draft) { d.Extras.VideoURL = "not a url" }, StepExtras, []string{"video_url"}},
		{"free plan", func(d *Draft) { d.Pricing.Price = decimal.Zero }, StepPricing, []string{"price"}},
		{"unknown package", func(d *Draft) { d.Pricing.PackageLevel = "gold" }, StepPricing, []string{"package_level"}},
		{"terms not accepted", func(d *Draft) { d.Compliance.AcceptTerms = false }, StepCompliance, []string{"accept_terms"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := completeDraft()
			tc.mutate(d)
			w := NewWizard(d)

			err := w.ValidateStep(tc.step)
			var stepErr *StepError
			require.ErrorAs(t, err, &stepErr)
			assert.Equal(t, tc.fields, stepErr.Fields)

			assert.ErrorAs(t, w.Complete(), &stepErr)
		})
	}
}

func TestWizard_BackAndGoTo(t *testing.T) {
	w := NewWizard(completeDraft())
	assert.ErrorIs(t, w.Back(), ErrFirstStep)
	assert.ErrorIs(t, w.GoTo(StepPricing), ErrStepNotKnown)

	require.NoError(t, w.Next())
	require.NoError(t, w.Next())
	require.NoError(t, w.Next())
	assert.Equal(t, StepFiles, w.Furthest())

	require.NoError(t, w.GoTo(StepBasicInfo))
	assert.Equal(t, StepFiles, w.Furthest())
	require.NoError(t, w.GoTo(StepFiles))
	require.NoError(t, w.Back())
	assert.Equal(t, StepDisciplines, w.Step())
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "boq and extras", StepExtras.String())
	assert.Equal(t, "step(12)", Step(12).String())
}
