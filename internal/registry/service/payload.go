package service

import (
	"fmt"
	"time"

	"github.com/registro-museografico/museum-registry/internal/registry/domain"
)

// timestampLayout matches what browsers produce for Date.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// NewRecordID returns the time based identifier the workflow expects.
func NewRecordID(t time.Time) string {
	return fmt.Sprintf("piece_%d", t.UnixMilli())
}

// BuildPayload freezes form into the webhook body. The payload owns its
// slices, so later edits to form never reach it.
func BuildPayload(form domain.Record, imageURLs []string, id string, at time.Time) domain.Payload {
	return domain.Payload{
		ID:                  id,
		Timestamp:           at.UTC().Format(timestampLayout),
		Museum:              form.Museum,
		Category:            form.Category,
		Name:                form.Name,
		Description:         form.Description,
		HistoricalContext:   form.HistoricalContext,
		ConstructionProcess: form.ConstructionProcess,
		Materials:           copyStrings(form.Materials),
		ConservationState:   form.ConservationState,
		Dimensions:          form.Dimensions,
		Weight:              form.Weight,
		Images:              copyStrings(imageURLs),
		InternalNotes:       form.InternalNotes,
		SupervisorComments:  form.SupervisorComments,
		Metadata: domain.PayloadMetadata{
			Author:          form.Metadata.Author,
			Period:          form.Metadata.Period,
			Room:            form.Metadata.Room,
			Community:       form.Metadata.Community,
			ApproximateYear: form.Metadata.ApproximateYear,
		},
	}
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
