package datekey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_CanonicalPassthrough(t *testing.T) {
	assert.Equal(t, "2024-01-05", Normalize("2024-01-05"))
	assert.Equal(t, "1999-12-31", Normalize("1999-12-31"))
}

func TestNormalize_ISOTimestamp(t *testing.T) {
	assert.Equal(t, "2024-01-05", Normalize("2024-01-05T00:00:00.000Z"))
	assert.Equal(t, "2024-01-05", Normalize("2024-01-05T23:59:59Z"))
	assert.Equal(t, "2024-03-09", Normalize("2024-03-09T10:30:00"))
}

func TestNormalize_AlternateFormats(t *testing.T) {
	assert.Equal(t, "2024-07-04", Normalize("2024/07/04"))
	assert.Equal(t, "2024-07-04", Normalize("07/04/2024"))
	assert.Equal(t, "2024-07-04", Normalize("Jul 4, 2024"))
}

func TestNormalize_UnparseablePassthrough(t *testing.T) {
	assert.Equal(t, "not a date", Normalize("not a date"))
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "2024-13-99x", Normalize("2024-13-99x"))
}

func TestFindByAnyKey_ExactHitWins(t *testing.T) {
	m := map[string]int{
		"2024-01-05":               1,
		"2024-01-05T00:00:00.000Z": 2,
	}
	v, storedKey, ok := FindByAnyKey(m, "2024-01-05")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, "2024-01-05", storedKey)
}

func TestFindByAnyKey_DriftedKey(t *testing.T) {
	m := map[string]int{
		"2024-01-05T00:00:00.000Z": 7,
		"2024-02-01":               3,
	}
	v, storedKey, ok := FindByAnyKey(m, "2024-01-05")
	assert.True(t, ok)
	assert.Equal(t, 7, v)
	assert.Equal(t, "2024-01-05T00:00:00.000Z", storedKey)
}

func TestFindByAnyKey_Miss(t *testing.T) {
	m := map[string]int{"2024-02-01": 3}
	_, _, ok := FindByAnyKey(m, "2024-01-05")
	assert.False(t, ok)
}
