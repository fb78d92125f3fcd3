package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOverview() WizardForm {
	return WizardForm{
		Title:       "Instalação elétrica",
		Category:    "home_services",
		Subcategory: "electrician",
		ServiceType: TypePresential,
	}
}

func TestValidateOverviewRequiredFields(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*WizardForm)
		missing string
	}{
		{"empty title", func(f *WizardForm) { f.Title = "" }, "title"},
		{"unset category", func(f *WizardForm) { f.Category = "" }, "category"},
		{"unset subcategory", func(f *WizardForm) { f.Subcategory = "" }, "subcategory"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := validOverview()
			tc.mutate(&form)
			errs := ValidateStep(StepOverview, &form)
			assert.Contains(t, errs, tc.missing)
		})
	}

	form := validOverview()
	assert.True(t, ValidateStep(StepOverview, &form).Empty())
}

func TestValidateOverviewBoardRegulated(t *testing.T) {
	form := WizardForm{
		Title:       "Consulta clínica",
		Category:    "healthcare",
		Subcategory: "general_doctor",
	}

	errs := ValidateStep(StepOverview, &form)
	assert.Contains(t, errs, "registration_number")
	assert.Contains(t, errs, "registration_state")
	assert.Contains(t, errs, "registration_image")

	form.RegistrationNumber = "CRM 12345"
	form.RegistrationState = "SP"
	form.RegistrationImage = "http://files/company-assets/crm.png"
	assert.True(t, ValidateStep(StepOverview, &form).Empty())
}

func TestValidateOverviewCertificationOnly(t *testing.T) {
	form := WizardForm{
		Title:       "Manutenção de alta tensão",
		Category:    "engineering",
		Subcategory: "electrician_nr10",
	}

	errs := ValidateStep(StepOverview, &form)
	assert.Contains(t, errs, "certification_id")
	assert.Contains(t, errs, "registration_image")
	assert.NotContains(t, errs, "registration_number")

	form.CertificationID = "NR10-998"
	form.RegistrationImage = "http://files/company-assets/nr10.png"
	assert.True(t, ValidateStep(StepOverview, &form).Empty())
}

func TestValidatePricing(t *testing.T) {
	form := WizardForm{IsSinglePackage: true}
	assert.Contains(t, ValidateStep(StepPricing, &form), "packages")

	form.Packages = &Packages{Basic: &Package{Price: 0}}
	assert.Contains(t, ValidateStep(StepPricing, &form), "packages")

	form.Packages.Basic.Price = 5000
	assert.True(t, ValidateStep(StepPricing, &form).Empty())

	multi := WizardForm{Packages: &Packages{Standard: &Package{Price: 12000}}}
	assert.True(t, ValidateStep(StepPricing, &multi).Empty())

	quoted := WizardForm{RequiresQuote: true}
	assert.True(t, ValidateStep(StepPricing, &quoted).Empty())
}

func TestWizardCannotSkipInvalidStep(t *testing.T) {
	w := NewWizard()

	errs, done := w.Next()
	assert.False(t, done)
	assert.False(t, errs.Empty())
	assert.Equal(t, StepOverview, w.Step(), "wizard must not advance past a failing step")

	w.Form.Title = "Pintura residencial"
	w.Form.Category = "home_services"
	w.Form.Subcategory = "painter"

	errs, done = w.Next()
	require.True(t, errs.Empty())
	assert.False(t, done)
	assert.Equal(t, StepPricing, w.Step())

	w.Form.Packages = &Packages{Basic: &Package{Price: 30000, DeliveryTime: 3, DeliveryUnit: UnitDays}}
	errs, done = w.Next()
	require.True(t, errs.Empty())
	assert.Equal(t, StepGallery, w.Step())

	errs, done = w.Next()
	require.True(t, errs.Empty())
	assert.True(t, done)
	assert.Equal(t, StepGallery, w.Step(), "done does not advance past the last step")
}

func TestWizardBack(t *testing.T) {
	w := NewWizard()
	w.Back()
	assert.Equal(t, StepOverview, w.Step())

	w.Form = validOverview()
	_, _ = w.Next()
	w.Back()
	assert.Equal(t, StepOverview, w.Step())
}
