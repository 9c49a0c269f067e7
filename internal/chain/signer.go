package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer supplies the signing identity referenced opaquely by execution
// steps. The engine never constructs transactions itself.
type Signer interface {
	Address() common.Address
	Sign(digest []byte) ([]byte, error)
}

// LocalSigner signs with an in-memory secp256k1 key.
type LocalSigner struct {
	address common.Address
	priv    []byte
}

// NewLocalSigner builds a signer from a hex-encoded private key.
func NewLocalSigner(privateKeyHex string) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return &LocalSigner{
		address: crypto.PubkeyToAddress(key.PublicKey),
		priv:    crypto.FromECDSA(key),
	}, nil
}

// Address returns the signer's account address.
func (s *LocalSigner) Address() common.Address {
	return s.address
}

// Sign signs a 32-byte digest.
func (s *LocalSigner) Sign(digest []byte) ([]byte, error) {
	key, err := crypto.ToECDSA(s.priv)
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}

	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return nil, fmt.Errorf("sign digest: %w", err)
	}

	return sig, nil
}
