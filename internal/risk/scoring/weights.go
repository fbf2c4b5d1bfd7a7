package scoring

import (
	"fmt"
	"strings"
)

// Archetype is one lexical class in an ordered match list. The first
// archetype whose keyword appears in the text wins.
type Archetype struct {
	Name     string   `yaml:"name"`
	Points   int      `yaml:"points"`
	Keywords []string `yaml:"keywords"`
}

// VolumeBucket scores volumes strictly below Below. The last bucket must
// have Below == 0 and catches everything else.
type VolumeBucket struct {
	Below  int64 `yaml:"below"`
	Points int   `yaml:"points"`
}

// CategoryWeights multiplies the tag count of each category set.
type CategoryWeights struct {
	Identification int `yaml:"identification"`
	Sensitive      int `yaml:"sensitive"`
	Special        int `yaml:"special"`
	Technical      int `yaml:"technical"`
}

// TransferWeights assigns points to each destination tier.
type TransferWeights struct {
	Domestic            int `yaml:"domestic"`
	EU                  int `yaml:"eu"`
	Adequacy            int `yaml:"adequacy"`
	USAWithSafeguard    int `yaml:"usa_with_safeguard"`
	USAWithoutSafeguard int `yaml:"usa_without_safeguard"`
	SimilarFramework    int `yaml:"similar_framework"`
	NoFramework         int `yaml:"no_framework"`
}

// Countries groups ISO 3166-1 alpha-2 codes per destination tier.
// Aliases map folded country names to codes.
type Countries struct {
	Domestic         string            `yaml:"domestic"`
	EU               []string          `yaml:"eu"`
	Adequacy         []string          `yaml:"adequacy"`
	USA              []string          `yaml:"usa"`
	SimilarFramework []string          `yaml:"similar_framework"`
	Aliases          map[string]string `yaml:"aliases"`
}

// Weights is the full static configuration of the scorer.
type Weights struct {
	Version           string          `yaml:"version"`
	Categories        CategoryWeights `yaml:"categories"`
	Purposes          []Archetype     `yaml:"purposes"`
	PurposeDefault    int             `yaml:"purpose_default"`
	Technologies      []Archetype     `yaml:"technologies"`
	TechnologyDefault int             `yaml:"technology_default"`
	Transfers         TransferWeights `yaml:"transfers"`
	Volume            []VolumeBucket  `yaml:"volume"`
	Countries         Countries       `yaml:"countries"`
}

// BuiltinVersion identifies the compiled-in weight tables.
const BuiltinVersion = "builtin-v1"

// DefaultWeights returns the compiled-in weight tables.
func DefaultWeights() Weights {
	return Weights{
		Version: BuiltinVersion,
		Categories: CategoryWeights{
			Identification: 1,
			Sensitive:      5,
			Special:        3,
			Technical:      2,
		},
		Purposes: []Archetype{
			{Name: "automated_decisions", Points: 10, Keywords: []string{
				"decisión automatizada", "decisiones automatizadas", "decisión automática",
				"scoring", "puntaje crediticio", "automated decision",
			}},
			{Name: "profiling", Points: 8, Keywords: []string{
				"perfilamiento", "perfilado", "elaboración de perfiles", "segmentación", "profiling",
			}},
			{Name: "monitoring", Points: 7, Keywords: []string{
				"videovigilancia", "vigilancia", "monitoreo", "geolocalización", "seguimiento de ubicación",
				"surveillance", "tracking",
			}},
			{Name: "marketing", Points: 6, Keywords: []string{
				"marketing", "publicidad", "promoción", "prospección comercial", "envío de ofertas",
				"newsletter", "advertising",
			}},
			{Name: "research", Points: 4, Keywords: []string{
				"investigación", "estadística", "analítica", "research", "analytics",
			}},
			{Name: "service_delivery", Points: 3, Keywords: []string{
				"prestación de servicios", "atención al cliente", "recursos humanos", "remuneraciones",
				"nómina", "selección de personal", "customer service", "payroll",
			}},
			{Name: "administration", Points: 1, Keywords: []string{
				"facturación", "contabilidad", "cobranza", "administración", "billing", "accounting",
			}},
			{Name: "legal_obligation", Points: 0, Keywords: []string{
				"obligación legal", "cumplimiento normativo", "obligaciones tributarias",
				"legal obligation", "regulatory compliance",
			}},
		},
		PurposeDefault: 2,
		Technologies: []Archetype{
			{Name: "automated_decision_algorithms", Points: 10, Keywords: []string{
				"algoritmo de decisión", "algoritmos decisionales", "motor de decisión",
				"decisión automatizada", "decision engine", "automated decision",
			}},
			{Name: "artificial_intelligence", Points: 8, Keywords: []string{
				"inteligencia artificial", "machine learning", "aprendizaje automático",
				"red neuronal", "deep learning", "artificial intelligence",
			}},
			{Name: "biometrics", Points: 7, Keywords: []string{
				"biometr", "reconocimiento facial", "huella dactilar", "facial recognition", "fingerprint",
			}},
			{Name: "big_data", Points: 5, Keywords: []string{
				"big data", "data lake", "data warehouse", "analítica masiva",
			}},
			{Name: "iot_geolocation", Points: 5, Keywords: []string{
				"internet de las cosas", "iot", "gps", "geolocaliz", "wearable",
			}},
			{Name: "cloud", Points: 3, Keywords: []string{
				"nube", "cloud", "saas",
			}},
			{Name: "web_mobile", Points: 2, Keywords: []string{
				"aplicación móvil", "app móvil", "sitio web", "portal web", "mobile app", "website",
			}},
			{Name: "plain_storage", Points: 0, Keywords: []string{
				"base de datos", "almacenamiento", "planilla", "excel", "archivo físico", "papel",
				"spreadsheet", "database",
			}},
		},
		TechnologyDefault: 0,
		Transfers: TransferWeights{
			Domestic:            0,
			EU:                  1,
			Adequacy:            2,
			USAWithSafeguard:    3,
			USAWithoutSafeguard: 5,
			SimilarFramework:    4,
			NoFramework:         8,
		},
		Volume: []VolumeBucket{
			{Below: 100, Points: 0},
			{Below: 1_000, Points: 1},
			{Below: 10_000, Points: 2},
			{Below: 100_000, Points: 4},
			{Below: 1_000_000, Points: 6},
			{Below: 0, Points: 8},
		},
		Countries: defaultCountries(),
	}
}

// Validate rejects tables the scorer cannot apply deterministically.
func (w Weights) Validate() error {
	if w.Categories.Identification < 0 || w.Categories.Sensitive < 0 ||
		w.Categories.Special < 0 || w.Categories.Technical < 0 {
		return fmt.Errorf("category weights must be non-negative")
	}
	if w.PurposeDefault < 0 || w.TechnologyDefault < 0 {
		return fmt.Errorf("archetype defaults must be non-negative")
	}
	if err := validateArchetypes("purposes", w.Purposes); err != nil {
		return err
	}
	if err := validateArchetypes("technologies", w.Technologies); err != nil {
		return err
	}
	t := w.Transfers
	for _, p := range []int{t.Domestic, t.EU, t.Adequacy, t.USAWithSafeguard, t.USAWithoutSafeguard, t.SimilarFramework, t.NoFramework} {
		if p < 0 {
			return fmt.Errorf("transfer weights must be non-negative")
		}
	}
	if t.USAWithoutSafeguard < t.USAWithSafeguard {
		return fmt.Errorf("usa_without_safeguard must not score below usa_with_safeguard")
	}
	if err := validateVolume(w.Volume); err != nil {
		return err
	}
	if strings.TrimSpace(w.Countries.Domestic) == "" {
		return fmt.Errorf("countries.domestic is required")
	}
	return nil
}

func validateArchetypes(name string, list []Archetype) error {
	for i, a := range list {
		if a.Name == "" {
			return fmt.Errorf("%s[%d]: name is required", name, i)
		}
		if a.Points < 0 {
			return fmt.Errorf("%s[%d] %s: points must be non-negative", name, i, a.Name)
		}
		if len(a.Keywords) == 0 {
			return fmt.Errorf("%s[%d] %s: at least one keyword is required", name, i, a.Name)
		}
		if i > 0 && a.Points > list[i-1].Points {
			return fmt.Errorf("%s must be ordered most risky first: %s outranks %s", name, a.Name, list[i-1].Name)
		}
	}
	return nil
}

func validateVolume(buckets []VolumeBucket) error {
	if len(buckets) == 0 {
		return fmt.Errorf("volume buckets are required")
	}
	last := len(buckets) - 1
	for i, b := range buckets {
		if b.Points < 0 {
			return fmt.Errorf("volume[%d]: points must be non-negative", i)
		}
		if i == last {
			if b.Below != 0 {
				return fmt.Errorf("volume: last bucket must be open-ended (below: 0)")
			}
			continue
		}
		if b.Below <= 0 {
			return fmt.Errorf("volume[%d]: below must be positive", i)
		}
		if i > 0 && b.Below <= buckets[i-1].Below {
			return fmt.Errorf("volume[%d]: boundaries must be strictly increasing", i)
		}
	}
	return nil
}
