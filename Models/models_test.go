package Models

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusUnset, StatusOK, StatusNOK, StatusNA} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("maybe").Valid())
	assert.Equal(t, "N/A", StatusNA.Label())
}

func TestShiftLabels(t *testing.T) {
	assert.Equal(t, "Night", ShiftNight.Label())
	assert.Equal(t, "14:00 - 22:00", ShiftAfternoon.Hours())
	assert.False(t, Shift("evening").Valid())
}

func TestConnectMigratesAndSeeds(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "models.db")

	db, err := Connect("sqlite", dsn, true, zap.NewNop())
	require.NoError(t, err)

	var questions []Question
	require.NoError(t, db.Order("question_number").Find(&questions).Error)
	require.Len(t, questions, len(defaultQuestions))
	assert.Equal(t, 1, questions[0].Number)
	assert.NotEqual(t, uuid.Nil, questions[0].ID)

	var lines []ProductionLine
	require.NoError(t, db.Preload("Operations").Where("area = ?", AreaWelding).Find(&lines).Error)
	assert.Len(t, lines, 2)
	for _, l := range lines {
		assert.NotEmpty(t, l.Operations)
	}

	// Seeding again is a no-op.
	created, err := Seed(db)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "x")
	assert.Error(t, err)
}
