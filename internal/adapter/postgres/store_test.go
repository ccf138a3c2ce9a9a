package postgres

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNullFloat(t *testing.T) {
	assert.Equal(t, sql.NullFloat64{}, nullFloat(nil))

	v := 5.1
	assert.Equal(t, sql.NullFloat64{Float64: 5.1, Valid: true}, nullFloat(&v))
}

func TestNullInt(t *testing.T) {
	assert.Equal(t, sql.NullInt64{}, nullInt(nil))

	v := 61
	assert.Equal(t, sql.NullInt64{Int64: 61, Valid: true}, nullInt(&v))
}

func TestNullString(t *testing.T) {
	assert.Equal(t, sql.NullString{}, nullString(""))
	assert.Equal(t, sql.NullString{String: "open-meteo", Valid: true}, nullString("open-meteo"))
}

func TestFloatPtr_RoundTrip(t *testing.T) {
	assert.Nil(t, floatPtr(sql.NullFloat64{}))

	got := floatPtr(sql.NullFloat64{Float64: 1011.2, Valid: true})
	if assert.NotNil(t, got) {
		assert.Equal(t, 1011.2, *got)
	}
}

func TestIntPtr_RoundTrip(t *testing.T) {
	assert.Nil(t, intPtr(sql.NullInt64{}))

	got := intPtr(sql.NullInt64{Int64: 3, Valid: true})
	if assert.NotNil(t, got) {
		assert.Equal(t, 3, *got)
	}
}
