package models

// IdentificationResult is the canonical, fully-defaulted shape of one AI
// identification after normalization. Optional nested groups are pointers and
// stay nil when the model did not return them; they are never synthesized.
type IdentificationResult struct {
	MainBird     BirdDetails   `json:"mainBird" validate:"required"`
	SimilarBirds []SimilarBird `json:"similarBirds" validate:"dive"` // never nil after normalization
	ImageURL     string        `json:"imageUrl,omitempty"`
}

// BirdDetails describes the primary identified bird.
type BirdDetails struct {
	Name                    string                   `json:"name" validate:"required"`
	ScientificName          string                   `json:"scientificName" validate:"required"`
	Confidence              int                      `json:"confidence" validate:"min=1,max=100"`
	Description             string                   `json:"description" validate:"required"`
	Features                []string                 `json:"features" validate:"min=1"`
	PhysicalCharacteristics *PhysicalCharacteristics `json:"physicalCharacteristics,omitempty"`
	HabitatRange            *HabitatRange            `json:"habitatAndRange,omitempty"`
	MigrationPattern        *MigrationPattern        `json:"migrationPattern,omitempty"`
	SeasonalVariation       *SeasonalVariation       `json:"seasonalVariation,omitempty"`
	Sounds                  *Sounds                  `json:"sounds,omitempty"`
}

// PhysicalCharacteristics groups the bird's physical traits.
type PhysicalCharacteristics struct {
	Size     string `json:"size,omitempty"`
	Weight   string `json:"weight,omitempty"`
	Wingspan string `json:"wingspan,omitempty"`
	Plumage  string `json:"plumage,omitempty"`
}

// HabitatRange groups where the bird lives and its geographic range.
type HabitatRange struct {
	Habitat string `json:"habitat,omitempty"`
	Range   string `json:"range,omitempty"`
}

// MigrationPattern describes whether and how the bird migrates.
type MigrationPattern struct {
	Migratory bool   `json:"migratory"`
	Details   string `json:"details,omitempty"`
}

// SeasonalVariation describes plumage or behavior changes through the year.
type SeasonalVariation struct {
	Summer string `json:"summer,omitempty"`
	Winter string `json:"winter,omitempty"`
}

// Sounds describes the bird's calls and songs.
type Sounds struct {
	Call string `json:"call,omitempty"`
	Song string `json:"song,omitempty"`
}

// SimilarBird is a species the primary bird could be confused with.
type SimilarBird struct {
	Name           string `json:"name" validate:"required"`
	ScientificName string `json:"scientificName" validate:"required"`
	Confidence     int    `json:"confidence" validate:"min=1,max=100"`
}
