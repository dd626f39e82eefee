package domain

import (
	"strings"
	"time"
)

// Metadata groups the provenance fields of a record.
type Metadata struct {
	Author          string `json:"autor"`
	Period          string `json:"periodo"`
	Room            string `json:"sala"`
	Community       string `json:"comunidad,omitempty"`
	ApproximateYear string `json:"anio_aproximado,omitempty"`
}

// Record is the editable form state of one catalog entry.
type Record struct {
	Museum              Museum            `json:"museo"`
	Category            string            `json:"categoria"`
	Name                string            `json:"nombre"`
	Description         string            `json:"descripcion"`
	HistoricalContext   string            `json:"contexto_historico,omitempty"`
	ConstructionProcess string            `json:"proceso_construccion,omitempty"`
	Materials           []string          `json:"materiales"`
	ConservationState   ConservationState `json:"estado_conservacion"`
	Dimensions          string            `json:"dimensiones,omitempty"`
	Weight              string            `json:"peso,omitempty"`
	Images              []string          `json:"imagenes"`
	InternalNotes       string            `json:"notas_internas,omitempty"`
	SupervisorComments  string            `json:"comentarios_supervisor,omitempty"`
	Metadata            Metadata          `json:"metadata"`
}

// NewRecord returns the empty form shown when the editor opens.
func NewRecord() Record {
	return Record{
		Museum:            MuseumOfTheSea,
		Materials:         []string{},
		ConservationState: StateGood,
		Images:            []string{},
	}
}

// AddMaterial appends a trimmed material. Empty and duplicate values are ignored.
func (r *Record) AddMaterial(material string) bool {
	m := strings.TrimSpace(material)
	if m == "" {
		return false
	}
	for _, existing := range r.Materials {
		if existing == m {
			return false
		}
	}
	r.Materials = append(r.Materials, m)
	return true
}

// RemoveMaterial drops material by value; absent values are a no-op.
func (r *Record) RemoveMaterial(material string) bool {
	for i, existing := range r.Materials {
		if existing == material {
			r.Materials = append(r.Materials[:i:i], r.Materials[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	out.Materials = append([]string{}, r.Materials...)
	out.Images = append([]string{}, r.Images...)
	return out
}

// MetadataPatch carries optional metadata updates.
type MetadataPatch struct {
	Author          *string `json:"autor,omitempty"`
	Period          *string `json:"periodo,omitempty"`
	Room            *string `json:"sala,omitempty"`
	Community       *string `json:"comunidad,omitempty"`
	ApproximateYear *string `json:"anio_aproximado,omitempty"`
}

// FieldPatch carries the fields an editor changed. Nil fields are left alone.
// Materials and images have their own operations and are not patchable.
type FieldPatch struct {
	Museum              *Museum            `json:"museo,omitempty"`
	Category            *string            `json:"categoria,omitempty"`
	Name                *string            `json:"nombre,omitempty"`
	Description         *string            `json:"descripcion,omitempty"`
	HistoricalContext   *string            `json:"contexto_historico,omitempty"`
	ConstructionProcess *string            `json:"proceso_construccion,omitempty"`
	ConservationState   *ConservationState `json:"estado_conservacion,omitempty"`
	Dimensions          *string            `json:"dimensiones,omitempty"`
	Weight              *string            `json:"peso,omitempty"`
	InternalNotes       *string            `json:"notas_internas,omitempty"`
	SupervisorComments  *string            `json:"comentarios_supervisor,omitempty"`
	Metadata            *MetadataPatch     `json:"metadata,omitempty"`
}

// Apply validates the enumerated fields of p and copies every set field into r.
// Nothing is written when validation fails.
func (r *Record) Apply(p FieldPatch) error {
	if p.Museum != nil && !p.Museum.Valid() {
		return &ValidationError{Field: "museo", Message: "Museo no válido: " + string(*p.Museum)}
	}
	if p.ConservationState != nil && !p.ConservationState.Valid() {
		return &ValidationError{Field: "estado_conservacion", Message: "Estado de conservación no válido: " + string(*p.ConservationState)}
	}

	if p.Museum != nil && *p.Museum != r.Museum {
		r.Museum = *p.Museum
		// categories are museum specific
		if p.Category == nil {
			r.Category = ""
		}
	}
	setString(&r.Category, p.Category)
	setString(&r.Name, p.Name)
	setString(&r.Description, p.Description)
	setString(&r.HistoricalContext, p.HistoricalContext)
	setString(&r.ConstructionProcess, p.ConstructionProcess)
	if p.ConservationState != nil {
		r.ConservationState = *p.ConservationState
	}
	setString(&r.Dimensions, p.Dimensions)
	setString(&r.Weight, p.Weight)
	setString(&r.InternalNotes, p.InternalNotes)
	setString(&r.SupervisorComments, p.SupervisorComments)

	if m := p.Metadata; m != nil {
		setString(&r.Metadata.Author, m.Author)
		setString(&r.Metadata.Period, m.Period)
		setString(&r.Metadata.Room, m.Room)
		setString(&r.Metadata.Community, m.Community)
		setString(&r.Metadata.ApproximateYear, m.ApproximateYear)
	}
	return nil
}

// ValidateRequired reports the first blank mandatory field. The form marks
// nombre, categoria and descripcion as required.
func (r Record) ValidateRequired() error {
	required := []struct {
		field, label, value string
	}{
		{"nombre", "nombre", r.Name},
		{"categoria", "categoría", r.Category},
		{"descripcion", "descripción", r.Description},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.field, Message: "Completa el campo obligatorio: " + f.label + "."}
		}
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// StagedImage is a local file waiting for upload. Preview is the URL the
// dashboard uses to show it; it stops resolving once the image is released.
type StagedImage struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Preview     string    `json:"preview"`
	StagedAt    time.Time `json:"staged_at"`
}

// SubmissionState is a node of the submission state machine.
type SubmissionState string

const (
	StateIdle       SubmissionState = "idle"
	StateUploading  SubmissionState = "uploading"
	StateSubmitting SubmissionState = "submitting"
	StateSucceeded  SubmissionState = "succeeded"
	StateFailed     SubmissionState = "failed"
)

// Terminal reports whether s ends a submission attempt.
func (s SubmissionState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// InFlight reports whether a submission attempt is running.
func (s SubmissionState) InFlight() bool {
	return s == StateUploading || s == StateSubmitting
}

// SubmissionStatus is what the dashboard shows around the submit button.
type SubmissionStatus struct {
	State     SubmissionState `json:"state"`
	Stage     string          `json:"stage,omitempty"`
	Message   string          `json:"message,omitempty"`
	Error     string          `json:"error,omitempty"`
	RecordID  string          `json:"record_id,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Draft is one editor's form plus its staged images and last submission status.
type Draft struct {
	ID        string           `json:"id"`
	Form      Record           `json:"form"`
	Staged    []StagedImage    `json:"staged_images"`
	Status    SubmissionStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// FindStaged returns the index of the staged image with id, or -1.
func (d *Draft) FindStaged(id string) int {
	for i, img := range d.Staged {
		if img.ID == id {
			return i
		}
	}
	return -1
}

// PayloadMetadata mirrors Metadata with every key always present.
type PayloadMetadata struct {
	Author          string `json:"autor"`
	Period          string `json:"periodo"`
	Room            string `json:"sala"`
	Community       string `json:"comunidad"`
	ApproximateYear string `json:"anio_aproximado"`
}

// Payload is the frozen record sent to the workflow webhook.
type Payload struct {
	ID                  string            `json:"id"`
	Timestamp           string            `json:"timestamp"`
	Museum              Museum            `json:"museo"`
	Category            string            `json:"categoria"`
	Name                string            `json:"nombre"`
	Description         string            `json:"descripcion"`
	HistoricalContext   string            `json:"contexto_historico"`
	ConstructionProcess string            `json:"proceso_construccion"`
	Materials           []string          `json:"materiales"`
	ConservationState   ConservationState `json:"estado_conservacion"`
	Dimensions          string            `json:"dimensiones"`
	Weight              string            `json:"peso"`
	Images              []string          `json:"imagenes"`
	InternalNotes       string            `json:"notas_internas"`
	SupervisorComments  string            `json:"comentarios_supervisor"`
	Metadata            PayloadMetadata   `json:"metadata"`
}
