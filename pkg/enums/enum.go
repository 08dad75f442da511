package enums

import "fmt"

// parse looks value up in the allowed set, returning a descriptive error
// labelled with kind when it is not a member.
func parse[T ~string](kind, value string, allowed []T) (T, error) {
	for _, candidate := range allowed {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, value)
}

func contains[T ~string](value T, allowed []T) bool {
	for _, candidate := range allowed {
		if candidate == value {
			return true
		}
	}
	return false
}
