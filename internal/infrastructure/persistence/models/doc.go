// Package models contains the GORM persistence models and their mappings
// to and from the domain aggregates. Domain types stay free of storage
// concerns; everything ORM-specific lives here.
package models
