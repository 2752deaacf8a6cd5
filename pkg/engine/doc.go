// Package engine holds the contracts shared by the ucm lifecycle: the error
// taxonomy, the two-variant provisioning Status and the interfaces of every
// external collaborator (provisioning engine, record store, configuration
// store, secret store, model-info source, identity provider and authorizer).
//
// Concrete implementations live in sibling packages: provisioner (CloudFormation),
// stores (SQLite), secrets (Vault), identity (Cognito) and policy (OPA).
package engine
