package keystore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"

	"github.com/bitfsorg/revledger-go/revshare"
)

const (
	PurposeBIP44    = 44
	CoinType        = 236
	IdentityAccount = 0

	// Hardened is the BIP32 hardened index offset.
	Hardened = 0x80000000

	// KeyFileName is the default key file name inside the data directory.
	KeyFileName = "identity.enc"
)

// Identity is a ledger participant's signing key.
type Identity struct {
	PrivateKey *ec.PrivateKey
	PublicKey  *ec.PublicKey
	Address    revshare.Address
	Path       string
}

// DeriveIdentity derives the identity key at m/44'/236'/0'/0/index.
func DeriveIdentity(seed []byte, index uint32) (*Identity, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	if index >= Hardened {
		return nil, fmt.Errorf("%w: index %d is hardened", ErrDerivationFailed, index)
	}
	master, err := bip32.NewMaster(seed, &chaincfg.MainNet)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}

	key := master
	for _, child := range []uint32{PurposeBIP44 + Hardened, CoinType + Hardened, IdentityAccount + Hardened, 0, index} {
		if key, err = key.Child(child); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
		}
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: extract EC private key: %w", ErrDerivationFailed, err)
	}
	return NewIdentity(priv, fmt.Sprintf("m/44'/%d'/%d'/0/%d", CoinType, IdentityAccount, index)), nil
}

// NewIdentity wraps an existing private key.
func NewIdentity(priv *ec.PrivateKey, path string) *Identity {
	pub := priv.PubKey()
	return &Identity{
		PrivateKey: priv,
		PublicKey:  pub,
		Address:    revshare.AddressFromPubKey(pub),
		Path:       path,
	}
}

// KeyFilePath returns the default key file path inside dataDir.
func KeyFilePath(dataDir string) string {
	return filepath.Join(dataDir, KeyFileName)
}

// SaveSeed encrypts seed with password and writes it to path. An existing
// file is never overwritten.
func SaveSeed(path string, seed []byte, password string) error {
	enc, err := EncryptSeed(seed, password)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("keystore: create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrKeyFileExists, path)
	}
	if err != nil {
		return fmt.Errorf("keystore: create key file: %w", err)
	}
	if _, err := f.Write(enc); err != nil {
		_ = f.Close()
		return fmt.Errorf("keystore: write key file: %w", err)
	}
	return f.Close()
}

// LoadSeed reads and decrypts the seed stored at path.
func LoadSeed(path, password string) ([]byte, error) {
	enc, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrKeyFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("keystore: read key file: %w", err)
	}
	return DecryptSeed(enc, password)
}

// LoadIdentity loads the seed at path and derives identity index 0.
func LoadIdentity(path, password string) (*Identity, error) {
	seed, err := LoadSeed(path, password)
	if err != nil {
		return nil, err
	}
	return DeriveIdentity(seed, 0)
}
