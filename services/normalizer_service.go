package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math"

	"birdid/models"

	"github.com/go-playground/validator/v10"
)

// Literal defaults applied to absent fields during normalization. Defaults are
// never inferred from other fields.
const (
	defaultBirdName       = "Unknown Bird"
	defaultScientificName = "Unknown"
	defaultDescription    = "No description available."
	defaultConfidence     = 0
)

func defaultFeatures() []string {
	return []string{"No distinguishing features provided"}
}

// NormalizerService converts a loosely-typed AI response into a validated
// IdentificationResult, or rejects it with a typed failure. Normalization is a
// pure transformation: no side effects, no partial output on failure.
type NormalizerService interface {
	Normalize(raw []byte) (*models.IdentificationResult, error)
}

type normalizerService struct {
	validate *validator.Validate
}

// NewNormalizerService creates a new instance of NormalizerService.
func NewNormalizerService() NormalizerService {
	return &normalizerService{
		validate: validator.New(),
	}
}

// rawBird mirrors BirdDetails with optional scalars so that absent fields are
// distinguishable from zero values.
type rawBird struct {
	Name                    *string                         `json:"name"`
	ScientificName          *string                         `json:"scientificName"`
	Confidence              *float64                        `json:"confidence"`
	Description             *string                         `json:"description"`
	Features                []string                        `json:"features"`
	PhysicalCharacteristics *models.PhysicalCharacteristics `json:"physicalCharacteristics"`
	HabitatRange            *models.HabitatRange            `json:"habitatAndRange"`
	MigrationPattern        *models.MigrationPattern        `json:"migrationPattern"`
	SeasonalVariation       *models.SeasonalVariation       `json:"seasonalVariation"`
	Sounds                  *models.Sounds                  `json:"sounds"`
}

type rawSimilarBird struct {
	Name           *string  `json:"name"`
	ScientificName *string  `json:"scientificName"`
	Confidence     *float64 `json:"confidence"`
}

type rawResponse struct {
	Error        json.RawMessage `json:"error"`
	Message      string          `json:"message"`
	MainBird     *rawBird        `json:"mainBird"`
	SimilarBirds json.RawMessage `json:"similarBirds"`
	ImageURL     string          `json:"imageUrl"`
}

// Normalize turns the raw AI response into the canonical result shape.
//
// Order of operations: explicit error flag, primary-bird presence, literal
// defaults, confidence rounding+clamping, optional groups carried only when
// present, similar-birds list normalization, final schema validation.
func (s *normalizerService) Normalize(raw []byte) (*models.IdentificationResult, error) {
	var resp rawResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		log.Printf("WARN: [Normalizer] AI response is not parseable JSON: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponseShape, err)
	}

	// 1. An explicit error flag wins over everything else in the payload.
	if flagged, msg := errorFlag(resp.Error); flagged {
		if msg == "" {
			msg = resp.Message
		}
		log.Printf("INFO: [Normalizer] AI response carries an explicit error flag: %s", msg)
		return nil, &IdentificationFailedError{Message: msg}
	}

	// 2. A primary bird entry with at least a name is mandatory.
	if resp.MainBird == nil || resp.MainBird.Name == nil || *resp.MainBird.Name == "" {
		log.Printf("WARN: [Normalizer] AI response lacks a primary bird entry with a name.")
		return nil, ErrInvalidResponseShape
	}

	// 3-5. Default scalars, clamp confidence, carry groups only when present.
	main := models.BirdDetails{
		Name:                    *resp.MainBird.Name,
		ScientificName:          stringOr(resp.MainBird.ScientificName, defaultScientificName),
		Confidence:              clampConfidence(floatOr(resp.MainBird.Confidence, defaultConfidence)),
		Description:             stringOr(resp.MainBird.Description, defaultDescription),
		Features:                resp.MainBird.Features,
		PhysicalCharacteristics: resp.MainBird.PhysicalCharacteristics,
		HabitatRange:            resp.MainBird.HabitatRange,
		MigrationPattern:        resp.MainBird.MigrationPattern,
		SeasonalVariation:       resp.MainBird.SeasonalVariation,
		Sounds:                  resp.MainBird.Sounds,
	}
	if len(main.Features) == 0 {
		main.Features = defaultFeatures()
	}

	// 6. Similar birds: absent or non-array collapses to an empty list.
	similar := normalizeSimilarBirds(resp.SimilarBirds)

	result := &models.IdentificationResult{
		MainBird:     main,
		SimilarBirds: similar,
		ImageURL:     resp.ImageURL,
	}

	// 7. Schema check over the assembled record. A failure here means a
	// malformed nested type survived defaulting.
	if err := s.validate.Struct(result); err != nil {
		log.Printf("ERROR: [Normalizer] Normalized record failed schema validation: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}

	return result, nil
}

// errorFlag interprets the response's error field. The AI collaborator sends
// either a boolean flag or an error object carrying a message.
func errorFlag(raw json.RawMessage) (bool, string) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte("false")) {
		return false, ""
	}
	if bytes.Equal(raw, []byte("true")) {
		return true, ""
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return true, obj.Message
	}
	// Any other non-false value still counts as flagged.
	return true, ""
}

func normalizeSimilarBirds(raw json.RawMessage) []models.SimilarBird {
	similar := []models.SimilarBird{}
	if len(raw) == 0 {
		return similar
	}
	var entries []rawSimilarBird
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Printf("WARN: [Normalizer] similarBirds is not an array, dropping it: %v", err)
		return similar
	}
	for _, entry := range entries {
		similar = append(similar, models.SimilarBird{
			Name:           stringOr(entry.Name, defaultBirdName),
			ScientificName: stringOr(entry.ScientificName, defaultScientificName),
			Confidence:     clampConfidence(floatOr(entry.Confidence, defaultConfidence)),
		})
	}
	return similar
}

// clampConfidence rounds to the nearest integer, then clamps into [1, 100].
func clampConfidence(v float64) int {
	n := int(math.Round(v))
	if n < 1 {
		return 1
	}
	if n > 100 {
		return 100
	}
	return n
}

func stringOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
