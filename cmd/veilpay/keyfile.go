package main

import (
	"crypto/ed25519"
	crand "crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/tos-network/veilpay/cmd/utils"
	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/crypto"
	"github.com/urfave/cli/v2"
)

// keyJSON is the on-disk form of a signing key.
type keyJSON struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Seed    string `json:"seed"`
}

// Key is a decoded signing key.
type Key struct {
	ID         uuid.UUID
	Address    common.Address
	PrivateKey ed25519.PrivateKey
}

func newKey() (*Key, error) {
	priv, err := crypto.GenerateKey(crand.Reader)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("could not create random uuid: %v", err)
	}
	return &Key{ID: id, Address: crypto.PubkeyToAddress(priv), PrivateKey: priv}, nil
}

func (k *Key) MarshalJSON() ([]byte, error) {
	return json.Marshal(keyJSON{
		ID:      k.ID.String(),
		Address: k.Address.Hex(),
		Seed:    hex.EncodeToString(k.PrivateKey.Seed()),
	})
}

func (k *Key) UnmarshalJSON(data []byte) error {
	var enc keyJSON
	if err := json.Unmarshal(data, &enc); err != nil {
		return err
	}
	id, err := uuid.Parse(enc.ID)
	if err != nil {
		return fmt.Errorf("invalid key id: %v", err)
	}
	seed, err := hex.DecodeString(enc.Seed)
	if err != nil {
		return fmt.Errorf("invalid key seed: %v", err)
	}
	priv, err := crypto.ToEd25519(seed)
	if err != nil {
		return err
	}
	addr := crypto.PubkeyToAddress(priv)
	if enc.Address != "" && common.HexToAddress(enc.Address) != addr {
		return fmt.Errorf("key address mismatch: have %s, seed derives %s", enc.Address, addr.Hex())
	}
	k.ID, k.Address, k.PrivateKey = id, addr, priv
	return nil
}

// writeKeyFile stores key at path, refusing to overwrite an existing file.
func writeKeyFile(path string, key *Key) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("keyfile already exists at %s", path)
	}
	data, err := json.MarshalIndent(key, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create directory %s: %v", filepath.Dir(path), err)
	}
	return os.WriteFile(path, data, 0600)
}

// loadKey reads the keyfile named by the --keyfile flag.
func loadKey(ctx *cli.Context) *Key {
	path := ctx.String(utils.KeyFileFlag.Name)
	data, err := os.ReadFile(path)
	if err != nil {
		utils.Fatalf("Failed to read the keyfile at '%s': %v", path, err)
	}
	key := new(Key)
	if err := json.Unmarshal(data, key); err != nil {
		utils.Fatalf("Failed to decode keyfile '%s': %v", path, err)
	}
	return key
}
