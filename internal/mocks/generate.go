// Package mocks produces fake users and products for seeding and demos.
package mocks

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/nmoreno/go-commerce-api/internal/catalog"
	"github.com/nmoreno/go-commerce-api/internal/users"
)

var firstNames = []string{
	"Lucia", "Mateo", "Sofia", "Martin", "Valentina", "Diego",
	"Camila", "Tomas", "Julieta", "Nicolas", "Emma", "Santiago",
}

var lastNames = []string{
	"Garcia", "Fernandez", "Rodriguez", "Lopez", "Martinez",
	"Perez", "Gomez", "Diaz", "Torres", "Romero",
}

var categories = []string{
	"electronics", "books", "clothing", "home", "sports", "toys",
}

var productWords = []string{
	"Classic", "Portable", "Wireless", "Compact", "Premium", "Eco",
	"Lamp", "Speaker", "Backpack", "Notebook", "Mug", "Chair",
	"Headphones", "Bottle", "Keyboard", "Blanket",
}

func User(rng *rand.Rand, bcryptCost int) (*users.User, error) {
	first := firstNames[rng.Intn(len(firstNames))]
	last := lastNames[rng.Intn(len(lastNames))]
	hash, err := users.HashPassword(fmt.Sprintf("mock-%d", rng.Int63()), bcryptCost)
	if err != nil {
		return nil, err
	}
	return &users.User{
		FirstName:    first,
		LastName:     last,
		Email:        fmt.Sprintf("%s.%s.%d@example.com", first, last, rng.Intn(100000)),
		PasswordHash: hash,
		Role:         users.RoleUser,
		Active:       true,
	}, nil
}

func Product(rng *rand.Rand) *catalog.Product {
	name := productWords[rng.Intn(len(productWords))] + " " + productWords[rng.Intn(len(productWords))]
	// price in [1.00, 500.99], two decimal places
	cents := 100 + rng.Int63n(50000)
	return &catalog.Product{
		Name:        name,
		Description: "Mock product for testing and demos",
		Price:       decimal.New(cents, -2),
		Stock:       rng.Intn(200),
		Category:    categories[rng.Intn(len(categories))],
		Active:      true,
	}
}
