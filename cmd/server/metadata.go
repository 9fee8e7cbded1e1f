package main

import (
	"staffdesk/internal/domain/hr/department"
	"staffdesk/internal/domain/hr/employee"
	"staffdesk/internal/domain/visitor"
	"staffdesk/internal/metadata"
)

// setupMetadataRegistry registers every record type the API serves.
func setupMetadataRegistry() *metadata.Registry {
	reg := metadata.NewRegistry()

	// --- HR ---
	reg.Register(department.Definition())
	reg.Register(employee.Definition())

	// --- Front desk ---
	reg.Register(visitor.Definition())

	return reg
}
