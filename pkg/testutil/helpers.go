// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/Martingim-10/retirex/internal/projection"
)

// FindScenario finds a scenario by name in a projection result.
// Returns a pointer to the scenario if found, nil otherwise.
func FindScenario(result projection.Result, name string) *projection.ScenarioResult {
	scenarios := result.Scenarios()
	for i := range scenarios {
		if scenarios[i].Name == name {
			return &scenarios[i]
		}
	}
	return nil
}

// MustProject runs a request against the default policy and panics on error.
func MustProject(req projection.Request) projection.Result {
	engine, err := projection.NewEngine(projection.DefaultPolicy())
	if err != nil {
		panic(err)
	}
	result, err := engine.Project(req)
	if err != nil {
		panic(err)
	}
	return result
}
