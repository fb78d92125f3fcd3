package catalog

// BoardRequirement marks subcategories regulated by a professional board
// (CRM, OAB, CREA, ...). ShowUF means the registration carries a state code.
type BoardRequirement struct {
	Name   string `json:"name"`
	ShowUF bool   `json:"show_uf"`
}

// CertificationRequirement marks subcategories that need a certification
// (NR-10, CNH EAR, ...) instead of a board registration.
type CertificationRequirement struct {
	Name string `json:"name"`
}

type Subcategory struct {
	ID                    string                    `json:"id"`
	Label                 string                    `json:"label"`
	RequiresBoard         *BoardRequirement         `json:"requires_board,omitempty"`
	RequiresCertification *CertificationRequirement `json:"requires_certification,omitempty"`
}

type Category struct {
	ID            string        `json:"id"`
	Label         string        `json:"label"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Categories is the static service taxonomy, including per-subcategory
// professional-registration requirements.
var Categories = []Category{
	{
		ID:    "healthcare",
		Label: "Área da Saúde",
		Subcategories: []Subcategory{
			{ID: "general_doctor", Label: "Médico (clínico geral e especialistas)", RequiresBoard: &BoardRequirement{Name: "CRM", ShowUF: true}},
			{ID: "dentist", Label: "Dentista", RequiresBoard: &BoardRequirement{Name: "CRO", ShowUF: true}},
			{ID: "nurse", Label: "Enfermeiro", RequiresBoard: &BoardRequirement{Name: "COREN", ShowUF: true}},
			{ID: "psychologist", Label: "Psicólogo", RequiresBoard: &BoardRequirement{Name: "CRP", ShowUF: true}},
			{ID: "psychiatrist", Label: "Psiquiatra", RequiresBoard: &BoardRequirement{Name: "CRM", ShowUF: true}},
			{ID: "physiotherapist", Label: "Fisioterapeuta", RequiresBoard: &BoardRequirement{Name: "CREFITO", ShowUF: true}},
			{ID: "nutritionist", Label: "Nutricionista", RequiresBoard: &BoardRequirement{Name: "CRN", ShowUF: true}},
			{ID: "personal_trainer", Label: "Personal Trainer", RequiresBoard: &BoardRequirement{Name: "CREF", ShowUF: true}},
		},
	},
	{
		ID:    "legal",
		Label: "Jurídico",
		Subcategories: []Subcategory{
			{ID: "lawyer", Label: "Advogado", RequiresBoard: &BoardRequirement{Name: "OAB", ShowUF: true}},
			{ID: "accountant", Label: "Contador", RequiresBoard: &BoardRequirement{Name: "CRC", ShowUF: true}},
		},
	},
	{
		ID:    "engineering",
		Label: "Engenharia e Arquitetura",
		Subcategories: []Subcategory{
			{ID: "civil_engineer", Label: "Engenheiro Civil", RequiresBoard: &BoardRequirement{Name: "CREA", ShowUF: true}},
			{ID: "architect", Label: "Arquiteto", RequiresBoard: &BoardRequirement{Name: "CAU", ShowUF: true}},
			{ID: "electrician_nr10", Label: "Eletricista (alta tensão)", RequiresCertification: &CertificationRequirement{Name: "NR-10"}},
		},
	},
	{
		ID:    "home_services",
		Label: "Serviços Residenciais",
		Subcategories: []Subcategory{
			{ID: "plumber", Label: "Encanador"},
			{ID: "painter", Label: "Pintor"},
			{ID: "electrician", Label: "Eletricista residencial"},
			{ID: "cleaner", Label: "Diarista / Limpeza"},
			{ID: "gardener", Label: "Jardineiro"},
		},
	},
	{
		ID:    "transport",
		Label: "Transporte e Mudanças",
		Subcategories: []Subcategory{
			{ID: "moving", Label: "Mudanças e fretes"},
			{ID: "driver_ear", Label: "Motorista profissional", RequiresCertification: &CertificationRequirement{Name: "CNH EAR"}},
		},
	},
	{
		ID:    "beauty",
		Label: "Beleza e Bem-estar",
		Subcategories: []Subcategory{
			{ID: "hairdresser", Label: "Cabeleireiro"},
			{ID: "manicure", Label: "Manicure"},
			{ID: "makeup", Label: "Maquiador"},
		},
	},
	{
		ID:    "digital",
		Label: "Serviços Digitais",
		Subcategories: []Subcategory{
			{ID: "design", Label: "Design gráfico"},
			{ID: "webdev", Label: "Desenvolvimento web"},
			{ID: "marketing", Label: "Marketing digital"},
			{ID: "photography", Label: "Fotografia e vídeo"},
		},
	},
}

// FindSubcategory resolves a (category, subcategory) id pair against the
// taxonomy. Returns nil when either id is unknown.
func FindSubcategory(categoryID, subcategoryID string) *Subcategory {
	for _, cat := range Categories {
		if cat.ID != categoryID {
			continue
		}
		for i := range cat.Subcategories {
			if cat.Subcategories[i].ID == subcategoryID {
				return &cat.Subcategories[i]
			}
		}
	}
	return nil
}
