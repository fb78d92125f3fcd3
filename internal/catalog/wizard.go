package catalog

// Wizard steps. The flow is linear: Overview -> Pricing -> Gallery -> done.
type WizardStep int

const (
	StepOverview WizardStep = iota
	StepPricing
	StepGallery
	stepCount
)

// WizardForm is the accumulated form state across steps.
type WizardForm struct {
	Title              string
	Category           string
	Subcategory        string
	ServiceType        string
	Description        string
	Tags               []string
	Packages           *Packages
	Gallery            []string
	IsSinglePackage    bool
	RequiresQuote      bool
	RegistrationNumber string
	RegistrationState  string
	RegistrationImage  string
	CertificationID    string
}

// FieldErrors maps field names to validation messages for the current step.
type FieldErrors map[string]string

func (e FieldErrors) Empty() bool { return len(e) == 0 }

// ValidateStep checks one step of the form and returns its error set.
func ValidateStep(step WizardStep, form *WizardForm) FieldErrors {
	errs := FieldErrors{}

	switch step {
	case StepOverview:
		if form.Title == "" {
			errs["title"] = "título é obrigatório"
		}
		if form.Category == "" {
			errs["category"] = "categoria é obrigatória"
		}
		if form.Subcategory == "" {
			errs["subcategory"] = "subcategoria é obrigatória"
		}
		if form.Category != "" && form.Subcategory != "" {
			sub := FindSubcategory(form.Category, form.Subcategory)
			if sub == nil {
				errs["subcategory"] = "subcategoria desconhecida"
				break
			}
			if sub.RequiresBoard != nil {
				if form.RegistrationNumber == "" {
					errs["registration_number"] = "registro " + sub.RequiresBoard.Name + " é obrigatório"
				}
				if sub.RequiresBoard.ShowUF && form.RegistrationState == "" {
					errs["registration_state"] = "UF do registro é obrigatória"
				}
				if form.RegistrationImage == "" {
					errs["registration_image"] = "imagem do registro é obrigatória"
				}
			} else if sub.RequiresCertification != nil {
				if form.CertificationID == "" {
					errs["certification_id"] = "certificação " + sub.RequiresCertification.Name + " é obrigatória"
				}
				if form.RegistrationImage == "" {
					errs["registration_image"] = "imagem da certificação é obrigatória"
				}
			}
		}

	case StepPricing:
		if form.RequiresQuote {
			break
		}
		if form.IsSinglePackage {
			if form.Packages == nil || form.Packages.Basic == nil || form.Packages.Basic.Price <= 0 {
				errs["packages"] = "defina um preço válido"
			}
			break
		}
		hasPrice := false
		if form.Packages != nil {
			for _, tier := range []*Package{form.Packages.Basic, form.Packages.Standard, form.Packages.Premium} {
				if tier != nil && tier.Price > 0 {
					hasPrice = true
					break
				}
			}
		}
		if !hasPrice {
			errs["packages"] = "defina o preço de pelo menos um pacote"
		}

	case StepGallery:
		// Gallery is optional; the step exists for uploads only.
	}

	return errs
}

// Wizard is the finite-state machine driving service creation. Steps cannot
// be skipped: Next only advances after the current step validates clean.
type Wizard struct {
	step WizardStep
	Form WizardForm
}

func NewWizard() *Wizard {
	return &Wizard{Form: WizardForm{ServiceType: TypePresential}}
}

func (w *Wizard) Step() WizardStep { return w.step }

// Next validates the current step, advancing only on an empty error set.
// On the final step it reports done=true instead of advancing.
func (w *Wizard) Next() (errs FieldErrors, done bool) {
	errs = ValidateStep(w.step, &w.Form)
	if !errs.Empty() {
		return errs, false
	}
	if w.step == stepCount-1 {
		return nil, true
	}
	w.step++
	return nil, false
}

// Back moves to the previous step; it never validates.
func (w *Wizard) Back() {
	if w.step > 0 {
		w.step--
	}
}
