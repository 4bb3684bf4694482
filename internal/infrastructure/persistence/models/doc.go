// Package models contains the GORM persistence models of the dashboard tables.
// Domain types stay free of ORM tags; each model converts to and from its
// domain counterpart with ToDomain and FromDomain.
package models
