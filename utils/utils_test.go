package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestGenerateSlug(t *testing.T) {
	assert.Equal(t, "la-dura-dura", GenerateSlug("La Dura Dura"))
	assert.Equal(t, "cafe-creme", GenerateSlug("  Café  Crème!! "))
	assert.Equal(t, "", GenerateSlug("¡¿?"))
}

func TestIsDuplicateKey(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	assert.True(t, IsDuplicateKey(dup))
	assert.True(t, IsDuplicateKey(errors.New("E11000 duplicate key error collection: users")))
	assert.False(t, IsDuplicateKey(errors.New("timeout")))
	assert.False(t, IsDuplicateKey(nil))
}

func TestClampPage(t *testing.T) {
	page, limit := ClampPage(0, 0, 10, 50)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)

	_, limit = ClampPage(3, 500, 10, 50)
	assert.Equal(t, 50, limit)
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "hello", SanitizeText(`<script>alert(1)</script>hello`))
	assert.Equal(t, "Fish &amp; Chips", SanitizeText("  <b>Fish & Chips</b> "))
	assert.NotContains(t, SanitizeText("&lt;img src=x onerror=alert(1)&gt;"), "<img")
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)
	assert.NoError(t, CheckPassword(hash, "hunter2"))
	assert.Error(t, CheckPassword(hash, "hunter3"))
}
