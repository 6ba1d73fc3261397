// Package store provides file-based persistence for the local identity.
//
// KeyFileStore keeps two files under the application home directory:
//   - keypair.sec: base64(JSON({"publicKey": ..., "secretKey": ...}))
//   - keypair.pub: base64(JSON(publicKey))
//
// where each key is in the index-keyed wire form produced by the codec
// package. Writes go through a temp file and rename and are first-writer-wins:
// an existing key file is never overwritten, so there is no key rotation.
// The secret key file is not passphrase protected.
package store
