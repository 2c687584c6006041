package seed

import "strings"

// Suffix ends every seed key, e.g. UserSeed.
const Suffix = "Seed"

// SeedKeyToModelName derives the model name from a seed key: UserSeed -> user.
func SeedKeyToModelName(key string) string {
	return strings.ToLower(strings.TrimSuffix(key, Suffix))
}
