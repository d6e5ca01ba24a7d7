// Package wallet holds the wallet session used to attest review requests.
//
// A Session wraps a Provider that supplies an address and signs messages. The
// KeyProvider implementation signs with a secp256k1 key loaded from an
// environment variable or file, producing EIP-191 personal_sign signatures, and
// asks for confirmation through a ConfirmationPrompter before connecting or
// signing. The session does not notice when the provider's active account
// changes after connecting; the cached address is kept until Close.
package wallet
