// Package jwt reads and issues the access tokens the portal backend hands out.
//
// The client side never verifies signatures: [Inspector] only decodes the registered
// claims so the credential store can infer an expiry when a login or renewal payload
// omits expiresAt. [Issuer] signs and verifies tokens for the in-process development
// backend.
package jwt
