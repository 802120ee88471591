// Package password provides argon2id hashing and verification for the
// credentials held by aisleauth's local account stores. Hashes are encoded
// as PHC strings, so the parameters travel with the hash and cost upgrades
// can be rolled out without invalidating existing credentials.
package password
