package keystore

import "errors"

var (
	// ErrInvalidMnemonic indicates the mnemonic fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("keystore: invalid BIP39 mnemonic")

	// ErrInvalidEntropy indicates entropy bits is not 128 or 256.
	ErrInvalidEntropy = errors.New("keystore: entropy bits must be 128 or 256")

	// ErrInvalidSeed indicates the seed is empty.
	ErrInvalidSeed = errors.New("keystore: invalid seed")

	// ErrDecryptionFailed indicates wrong password or corrupted key file.
	ErrDecryptionFailed = errors.New("keystore: decryption failed (wrong password or corrupted data)")

	// ErrChecksumMismatch indicates the seed checksum did not verify after decryption.
	ErrChecksumMismatch = errors.New("keystore: seed checksum mismatch")

	// ErrDerivationFailed indicates BIP32 key derivation failed.
	ErrDerivationFailed = errors.New("keystore: key derivation failed")

	// ErrKeyFileNotFound indicates no key file exists at the given path.
	ErrKeyFileNotFound = errors.New("keystore: key file not found")

	// ErrKeyFileExists indicates a key file would be overwritten.
	ErrKeyFileExists = errors.New("keystore: key file already exists")
)
