//go:build !race

package auth

// DefaultPasswordHashCost is deliberately above the bcrypt default so
// brute-force guessing stays expensive.
const DefaultPasswordHashCost = 14

func passwordHashCost() int {
	return DefaultPasswordHashCost
}
