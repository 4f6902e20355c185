// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free of
// ORM concerns.
//
// Structure:
// - base.go: shared helpers
// - client.go: client, client_note, client_beneficiary
// - crm.go: snapshot
// - justification.go: saving_product, existing_product, new_product, form_instance,
//   client_signature_request
//
// Table and column names follow the legacy schemas so migrated databases keep working.
package models
