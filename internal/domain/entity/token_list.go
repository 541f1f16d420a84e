package entity

import "fmt"

// TokenList names one of the remote list variants.
type TokenList string

const (
	// StrictList is the curated, vetted subset.
	StrictList TokenList = "strict"
	// AllList is the full token set.
	AllList TokenList = "all"
)

// AutoLoadMode selects which retrieval, if any, runs once when a store is mounted.
type AutoLoadMode string

const (
	AutoLoadNone         AutoLoadMode = ""
	AutoLoadStrict       AutoLoadMode = "strict"
	AutoLoadAll          AutoLoadMode = "all"
	AutoLoadAllAndBanned AutoLoadMode = "all+banned"
)

// ParseAutoLoadMode converts a configuration value into an AutoLoadMode.
// An empty string means no auto-load.
func ParseAutoLoadMode(value string) (AutoLoadMode, error) {
	switch mode := AutoLoadMode(value); mode {
	case AutoLoadNone, AutoLoadStrict, AutoLoadAll, AutoLoadAllAndBanned:
		return mode, nil
	default:
		return AutoLoadNone, fmt.Errorf("unknown autoLoad mode %q (expected strict, all or all+banned)", value)
	}
}

// FailurePolicy decides what a failed retrieval does after the store state has been restored.
type FailurePolicy string

const (
	// PropagateFailures returns the error to the caller.
	PropagateFailures FailurePolicy = "propagate"
	// SwallowFailures logs the error and reports no result.
	SwallowFailures FailurePolicy = "swallow"
)

// ParseFailurePolicy converts a configuration value into a FailurePolicy.
// An empty string selects PropagateFailures.
func ParseFailurePolicy(value string) (FailurePolicy, error) {
	switch policy := FailurePolicy(value); policy {
	case "":
		return PropagateFailures, nil
	case PropagateFailures, SwallowFailures:
		return policy, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q (expected propagate or swallow)", value)
	}
}
