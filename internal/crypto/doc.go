// Package crypto provides the key material collaborator used by device
// commands: BIP32 derivation from a seed, secp256k1 keys, deterministic
// ECDSA signatures and the BLAKE2b hashes that name keys and transactions.
package crypto
