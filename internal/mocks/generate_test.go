package mocks

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

func TestUser(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	u, err := User(rng, bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEmpty(t, u.FirstName)
	assert.NotEmpty(t, u.LastName)
	assert.True(t, strings.HasSuffix(u.Email, "@example.com"), "email %s", u.Email)
	assert.NotEmpty(t, u.PasswordHash)
	assert.True(t, u.Active)
}

func TestProduct(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 50; i++ {
		p := Product(rng)
		assert.NotEmpty(t, p.Name)
		assert.True(t, p.Price.GreaterThanOrEqual(decimal.New(100, -2)))
		assert.True(t, p.Price.LessThan(decimal.New(51100, -2)))
		assert.GreaterOrEqual(t, p.Stock, 0)
		assert.True(t, p.Active)
	}
}
