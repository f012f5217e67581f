package models_test

import (
	"testing"

	"github.com/UnknownOlympus/geobatch/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSummaryRecord(t *testing.T) {
	var summary models.Summary

	for _, kind := range []models.OutcomeKind{
		models.OutcomeSuccess,
		models.OutcomeSkippedEmptyAddress,
		models.OutcomeSuccess,
		models.OutcomeNotFound,
		models.OutcomeTransientAPIError,
	} {
		summary.Record(kind)
	}

	assert.Equal(t, 5, summary.Processed)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 3, summary.Failed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.NotFound)
	assert.Equal(t, 1, summary.APIErrors)
}

func TestOutcome(t *testing.T) {
	success := models.Success(37.566, 126.978)
	assert.Equal(t, models.OutcomeSuccess, success.Kind)
	assert.InDelta(t, 37.566, success.Coordinates.Latitude, 0)
	assert.InDelta(t, 126.978, success.Coordinates.Longitude, 0)
	assert.False(t, success.IsFatal())

	fatal := models.FatalError(assert.AnError)
	assert.True(t, fatal.IsFatal())
	assert.ErrorIs(t, fatal.Err, assert.AnError)

	assert.Equal(t, "skipped", models.SkippedEmptyAddress().Kind.String())
	assert.Equal(t, "not_found", models.NotFound().Kind.String())
	assert.Equal(t, "api_error", models.TransientAPIError(assert.AnError).Kind.String())
}
