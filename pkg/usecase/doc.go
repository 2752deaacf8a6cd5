// Package usecase defines the configuration model shared by every layer of
// ucm: the transient UseCase value built per request, its ordered deployment
// parameters, the free-form configuration document, and the persisted
// deployment record.
package usecase
